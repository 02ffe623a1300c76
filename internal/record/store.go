package record

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultDir is the run archive location relative to the working
// directory.
const DefaultDir = ".softsim"

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Shape       string             `json:"shape"`
	Coloring    string             `json:"coloring"`
	Bodies      int                `json:"bodies"`
	Particles   int                `json:"particles"`
	Constraints int                `json:"constraints"`
	Frames      int                `json:"frames"`
	Duration    float64            `json:"duration"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save archives one run as a directory holding metadata.json and
// frames.csv. The caller fills the descriptive metadata fields; ID,
// Timestamp, Frames, Duration and Metrics are derived here.
func (s *Store) Save(meta RunMetadata, frames []Frame) (string, error) {
	if meta.Name == "" {
		meta.Name = "run"
	}
	runID := fmt.Sprintf("%s_%d", meta.Name, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Frames = len(frames)
	if len(frames) > 0 {
		meta.Duration = frames[len(frames)-1].Time
	}
	if meta.Metrics == nil {
		meta.Metrics = Summarize(frames)
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "frames.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := writeFrames(csvFile, frames); err != nil {
		return "", err
	}

	return runID, nil
}

func writeFrames(w io.Writer, frames []Frame) error {
	cw := csv.NewWriter(w)

	header := []string{"time", "kinetic", "mean_speed", "peak_speed", "awake", "asleep", "degraded"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, f := range frames {
		row := []string{
			strconv.FormatFloat(f.Time, 'f', 6, 64),
			strconv.FormatFloat(f.Kinetic, 'f', 6, 64),
			strconv.FormatFloat(f.MeanSpeed, 'f', 6, 64),
			strconv.FormatFloat(f.PeakSpeed, 'f', 6, 64),
			strconv.Itoa(f.Awake),
			strconv.Itoa(f.Asleep),
			strconv.Itoa(f.Degraded),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// List scans the archive. Directories without a readable metadata
// file are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadFrames reads a run's frame series back. Malformed rows are
// skipped.
func (s *Store) LoadFrames(runID string) ([]Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "frames.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []Frame{}, nil
	}

	frames := make([]Frame, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != 7 {
			continue
		}

		floats := make([]float64, 4)
		ok := true
		for i := 0; i < 4; i++ {
			floats[i], err = strconv.ParseFloat(record[i], 64)
			if err != nil {
				ok = false
				break
			}
		}
		ints := make([]int, 3)
		for i := 0; i < 3 && ok; i++ {
			ints[i], err = strconv.Atoi(record[4+i])
			if err != nil {
				ok = false
			}
		}
		if !ok {
			continue
		}

		frames = append(frames, Frame{
			Time:      floats[0],
			Kinetic:   floats[1],
			MeanSpeed: floats[2],
			PeakSpeed: floats[3],
			Awake:     ints[0],
			Asleep:    ints[1],
			Degraded:  ints[2],
		})
	}

	return frames, nil
}
