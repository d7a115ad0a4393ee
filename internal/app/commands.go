package app

import (
	"context"
	"encoding/json"

	"absence-desk/internal/host"
	"absence-desk/pkg/assets"
	"absence-desk/pkg/config"
)

// Commands returns the invoke handler: the complete set of commands the
// shell may call by name. Both take no arguments and return the raw asset
// text, which the shell parses itself.
func Commands(reader *assets.Reader) map[string]host.CommandFunc {
	return map[string]host.CommandFunc{
		config.CommandReadEmployeeJSON: readEmployeeJSON(reader),
		config.CommandReadCodeJSON:     readCodeJSON(reader),
	}
}

func readEmployeeJSON(reader *assets.Reader) host.CommandFunc {
	return func(_ context.Context, app *host.AppHandle, _ json.RawMessage) (interface{}, error) {
		content, err := reader.ReadEmployeeJSON(app)
		if err != nil {
			return nil, err
		}
		return content, nil
	}
}

func readCodeJSON(reader *assets.Reader) host.CommandFunc {
	return func(_ context.Context, app *host.AppHandle, _ json.RawMessage) (interface{}, error) {
		content, err := reader.ReadCodeJSON(app)
		if err != nil {
			return nil, err
		}
		return content, nil
	}
}
