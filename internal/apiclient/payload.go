package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// PayloadKind classifies a request body for content-type negotiation.
type PayloadKind int

const (
	PayloadNone PayloadKind = iota
	PayloadJSON
	PayloadMultipart
	PayloadBinary
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadNone:
		return "none"
	case PayloadJSON:
		return "json"
	case PayloadMultipart:
		return "multipart"
	case PayloadBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// FormField is one text part of a multipart form.
type FormField struct {
	Name  string
	Value string
}

// FormFile is one file part of a multipart form.
type FormFile struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// Form is a multipart/form-data payload. Parts are written in order.
type Form struct {
	Fields []FormField
	Files  []FormFile
}

// AddField appends a text part and returns the form for chaining.
func (f *Form) AddField(name, value string) *Form {
	f.Fields = append(f.Fields, FormField{Name: name, Value: value})
	return f
}

// AddFile appends a file part and returns the form for chaining.
func (f *Form) AddFile(file FormFile) *Form {
	f.Files = append(f.Files, file)
	return f
}

// Binary is a raw body sent with its own content type.
type Binary struct {
	Reader      io.Reader
	ContentType string
}

// encoded is a body ready to send. contentType is only set for payloads
// whose type carries parameters the encoder alone knows (multipart boundary)
// or that the caller chose explicitly (binary).
type encoded struct {
	body        io.Reader
	contentType string
	kind        PayloadKind
}

func encodePayload(body any) (encoded, error) {
	switch v := body.(type) {
	case nil:
		return encoded{kind: PayloadNone}, nil
	case *Form:
		if v == nil {
			return encoded{kind: PayloadNone}, nil
		}
		return encodeForm(v)
	case Binary:
		ct := v.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		return encoded{body: v.Reader, contentType: ct, kind: PayloadBinary}, nil
	case *Binary:
		if v == nil {
			return encoded{kind: PayloadNone}, nil
		}
		return encodePayload(*v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return encoded{}, fmt.Errorf("encode json body: %w", err)
		}
		return encoded{body: bytes.NewReader(data), kind: PayloadJSON}, nil
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeForm(f *Form) (encoded, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, field := range f.Fields {
		if err := mw.WriteField(field.Name, field.Value); err != nil {
			return encoded{}, fmt.Errorf("write form field %q: %w", field.Name, err)
		}
	}
	for _, file := range f.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(file.Field), quoteEscaper.Replace(file.Filename)))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := mw.CreatePart(h)
		if err != nil {
			return encoded{}, fmt.Errorf("create form file %q: %w", file.Filename, err)
		}
		if file.Content != nil {
			if _, err := io.Copy(part, file.Content); err != nil {
				return encoded{}, fmt.Errorf("copy form file %q: %w", file.Filename, err)
			}
		}
	}
	if err := mw.Close(); err != nil {
		return encoded{}, fmt.Errorf("close multipart writer: %w", err)
	}

	return encoded{body: &buf, contentType: mw.FormDataContentType(), kind: PayloadMultipart}, nil
}
