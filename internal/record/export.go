package record

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Meta   RunMetadata `json:"meta"`
	Frames []Frame     `json:"frames"`
}

func ExportJSON(path string, meta RunMetadata, frames []Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return exportJSON(file, meta, frames)
}

func ExportJSONStdout(meta RunMetadata, frames []Frame) error {
	return exportJSON(os.Stdout, meta, frames)
}

func exportJSON(w io.Writer, meta RunMetadata, frames []Frame) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Meta: meta, Frames: frames})
}

func ExportCSV(path string, frames []Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeFrames(file, frames)
}

func ExportCSVStdout(frames []Frame) error {
	return writeFrames(os.Stdout, frames)
}
