package report

import (
	"io"

	"github.com/goccy/go-json"

	"nhanesci/app"
	"nhanesci/internal/errors"
)

func renderJSON(w io.Writer, r *app.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal json")
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
