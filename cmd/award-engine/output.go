// cmd/award-engine/output.go
package main

import (
	"encoding/json"
	"io"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
