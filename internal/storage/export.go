package storage

import (
	"encoding/json"
	"io"
	"os"
)

// ExportJSON writes the run as a single indented JSON document.
func ExportJSON(w io.Writer, run Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

func ExportJSONFile(path string, run Run) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, run)
}
