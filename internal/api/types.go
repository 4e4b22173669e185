package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an opaque backend identifier. The backend emits integers today but
// the client only ever displays it, so strings are accepted too.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("unmarshal id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unmarshal id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Person is one row of /list_people. The backend names the field "nome".
type Person struct {
	ID   ID     `json:"id"`
	Name string `json:"nome"`
}

// RecognitionResult is one subject's outcome for a single captured frame.
type RecognitionResult struct {
	Name       string `json:"name"`
	Timestamp  string `json:"timestamp"`
	Recognized bool   `json:"recognized"`
}

// AccessLogEntry is one row of /access_log. Field names differ from
// RecognitionResult on the wire and are kept as the backend sends them.
type AccessLogEntry struct {
	ID             ID     `json:"id,omitempty"`
	IdentifiedName string `json:"nome_identificado"`
	Timestamp      string `json:"timestamp"`
	Recognized     bool   `json:"reconhecido"`
}

// RegisterResponse is the success body of /register_person_api.
type RegisterResponse struct {
	Message string `json:"message"`
}

// errorBody is the failure body shared by all endpoints.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Image is a binary payload sent as a multipart file part.
type Image struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Empty reports whether the image carries no bytes.
func (img Image) Empty() bool {
	return len(img.Data) == 0
}

// Field is one multipart form field. A field with Data set is sent as a file part.
type Field struct {
	Name        string
	Value       string
	FileName    string
	ContentType string
	Data        []byte
}

// TextField builds a plain form field.
func TextField(name, value string) Field {
	return Field{Name: name, Value: value}
}

// FileField builds a file form field from an Image.
func FileField(name string, img Image) Field {
	return Field{Name: name, FileName: img.FileName, ContentType: img.ContentType, Data: img.Data}
}

func (f Field) isFile() bool {
	return f.Data != nil || f.FileName != ""
}

// describe is used in debug logs, never the payload itself.
func (f Field) describe() string {
	if f.isFile() {
		return f.Name + "=<" + strconv.Itoa(len(f.Data)) + " bytes " + f.ContentType + ">"
	}
	return f.Name + "=" + f.Value
}
