package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"

	"yelpreviews/internal/reviews"
)

// EncodeJSON writes list as an indented json array, non-ascii and html
// characters are kept as is.
func EncodeJSON(w io.Writer, list []reviews.Review) error {
	if list == nil {
		list = []reviews.Review{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(list)
}

// EncodeCSV writes a header row then one row per review. Rows end with CRLF,
// a newline inside a quoted field stays a bare LF.
func EncodeCSV(w io.Writer, list []reviews.Review) error {
	var line bytes.Buffer
	writer := csv.NewWriter(&line)
	writeRow := func(row []string) error {
		line.Reset()
		err := writer.Write(row)
		if err != nil {
			return err
		}
		writer.Flush()
		err = writer.Error()
		if err != nil {
			return err
		}
		_, err = w.Write(append(bytes.TrimSuffix(line.Bytes(), []byte("\n")), '\r', '\n'))
		return err
	}

	err := writeRow(reviews.Header)
	if err != nil {
		return err
	}
	for _, r := range list {
		err = writeRow(r.Row())
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return wrap(path, err)
	}
	err = encode(f)
	return wrap(path, errors.Join(err, f.Close()))
}

type JSONFile struct {
	Path string
}

func (s JSONFile) Write(ctx context.Context, run Run, list []reviews.Review) error {
	return writeFile(s.Path, func(w io.Writer) error {
		return EncodeJSON(w, list)
	})
}

type CSVFile struct {
	Path string
}

func (s CSVFile) Write(ctx context.Context, run Run, list []reviews.Review) error {
	return writeFile(s.Path, func(w io.Writer) error {
		return EncodeCSV(w, list)
	})
}
