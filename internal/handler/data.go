package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
)

// Response texts of the data route.
const (
	MsgDataReceived = "Data received successfully"
	MsgInvalidJSON  = "Invalid JSON"
)

var errNoObject = errors.New("body is not a JSON object")

// dataResp echoes the two fields as raw JSON so they come back exactly as
// sent, whatever their type.  A nil field encodes as null.
type dataResp struct {
	Message string          `json:"message"`
	Name    json.RawMessage `json:"name"`
	Age     json.RawMessage `json:"age"`
}

// Data decodes the POSTed JSON object and reflects its name and age fields.
// An empty body, malformed JSON, null or any non-object value gets a 400.
// Errors raised while reading the body, such as the body limit being hit,
// keep their own status.
func Data(c echo.Context) error {
	fields, err := decodeObject(c.Request().Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": MsgInvalidJSON})
	}
	return c.JSON(http.StatusOK, dataResp{
		Message: MsgDataReceived,
		Name:    fields["name"],
		Age:     fields["age"],
	})
}

// decodeObject reads r as exactly one UTF-8 encoded JSON object.  Keys are matched
// case-sensitively, and the last of any duplicate keys wins.
func decodeObject(r io.Reader) (map[string]json.RawMessage, error) {
	if r == nil {
		return nil, errNoObject
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errNoObject
	}
	// RawMessage keeps bytes as they are, so invalid UTF-8 would leak into
	// the response.
	if !utf8.Valid(body) {
		return nil, errNoObject
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if fields == nil { // the body was the literal null
		return nil, errNoObject
	}
	return fields, nil
}
