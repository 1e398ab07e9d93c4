package tiramisu

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imroc/req"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

// Params are the scalar fields of a request. GET requests carry them in the
// query string, every other method as form fields.
type Params map[string]string

func (p Params) param() req.Param {
	param := make(req.Param, len(p))
	for k, v := range p {
		param[k] = v
	}
	return param
}

// File is a binary attachment sent as multipart content.
type File struct {
	Name    string
	Content []byte
}

const pictureField = "picture_orig"

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// OpenFile reads the file at path into a File named after its base name.
func OpenFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &File{Name: filepath.Base(path), Content: content}, nil
}

// ContentType derives the MIME type from the file extension.
func (f *File) ContentType() string {
	if t, ok := mimeTypes[strings.ToLower(filepath.Ext(f.Name))]; ok {
		return t
	}
	return "application/octet-stream"
}

func multipartBody(params Params, file *File) ([]byte, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range params {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, pictureField, escapeQuotes(file.Name)))
	h.Set("Content-Type", file.ContentType())
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err = part.Write(file.Content); err != nil {
		return nil, "", err
	}
	if err = w.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// Do sends an authenticated request to path (relative to the endpoint root)
// and returns the response body. A non-2xx answer is returned as an *Error of
// type RequestError carrying the raw body.
func (c *Client) Do(ctx context.Context, method, path string, params Params, file *File) (json.RawMessage, error) {
	return c.send(ctx, method, path, params, file, true)
}

func (c *Client) send(ctx context.Context, method, path string, params Params, file *File, authenticated bool) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Type: RequestError, Method: method, Path: path, Message: "rate limit wait aborted", Err: err}
		}
	}
	requestID := uuid.NewV4().String()
	logger := c.log.WithField("request_id", requestID)

	header := req.Header{
		"Accept":       "application/json",
		"X-Request-Id": requestID,
	}
	if authenticated {
		c.authorize(header)
	}
	args := []interface{}{ctx, header}
	switch {
	case method == http.MethodGet || method == http.MethodHead:
		if len(params) > 0 {
			args = append(args, req.QueryParam(params.param()))
		}
	case file != nil:
		body, contentType, err := multipartBody(params, file)
		if err != nil {
			return nil, &Error{Type: RequestError, Method: method, Path: path, Message: "could not encode multipart body", Err: err}
		}
		header["Content-Type"] = contentType
		args = append(args, body)
	case len(params) > 0:
		args = append(args, params.param())
	}

	logger.Debugf("[Transport] %s %s", method, path)
	start := time.Now()
	resp, err := c.req.Do(method, c.endpoint(path), args...)
	if err != nil {
		c.metrics.observeRequest(method, path, 0, time.Since(start))
		logger.Errorf("[Transport] %s %s failed: %v", method, path, err)
		return nil, &Error{Type: RequestError, Method: method, Path: path, Message: "could not reach backend", Err: err}
	}
	code := resp.Response().StatusCode
	c.metrics.observeRequest(method, path, code, time.Since(start))
	body, err := resp.ToBytes()
	if err != nil {
		return nil, &Error{Type: RequestError, Method: method, Path: path, StatusCode: code, Message: "could not read response", Err: err}
	}
	if code < 200 || code >= 300 {
		logger.WithFields(log.Fields{"status": code}).Errorf("[Transport] %s %s returned %d: %s", method, path, code, body)
		return nil, &Error{Type: RequestError, Method: method, Path: path, StatusCode: code, Body: string(body)}
	}
	return json.RawMessage(body), nil
}

// authorize attaches the session credentials to header.
func (c *Client) authorize(header req.Header) {
	switch c.authMode {
	case AuthBasic:
		cred := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
		header["Authorization"] = "Basic " + cred
	default:
		header["Authorization"] = "Token " + c.token
	}
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + strings.TrimPrefix(path, "/")
}

// decode unmarshals a response body into v. A body of unexpected shape is
// reported as a RequestError carrying the raw body.
func decode(method, path string, raw json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return &Error{Type: RequestError, Method: method, Path: path, Body: string(raw), Message: "unexpected response body", Err: err}
	}
	return nil
}
