package naukri

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

type attachResumeRequest struct {
	TextCV struct {
		FileKey       string  `json:"fileKey"`
		FormKey       string  `json:"formKey"`
		TextCVContent *string `json:"textCvContent"`
	} `json:"textCV"`
}

type attachResumeResponse struct {
	Status json.RawMessage `json:"status"`
}

func resumeRoute(profileID, action string) string {
	return profileResumeRoute + url.PathEscape(profileID) + "/" + action
}

// DeleteResume removes the resume currently attached to the profile.
func (c *Client) DeleteResume(ctx context.Context, token, profileID string) error {
	const op = "delete resume"

	req, err := c.jsonRequest(op, http.MethodPost, resumeRoute(profileID, "deleteResume"), resumeHeaders, token, struct{}{})
	if err != nil {
		return err
	}
	req.override = http.MethodDelete

	_, err = c.do(ctx, req)
	return err
}

// UploadResume posts the file to the portal's validation service, which
// stages it under the configured file key.
func (c *Client) UploadResume(ctx context.Context, token, _ string, resume model.ResumeArtifact) error {
	const op = "upload resume"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := writeUploadForm(w, c.opts, resume); err != nil {
		return fmt.Errorf("%s: write form: %w", op, err)
	}

	_, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodPost,
		url:     c.opts.UploadURL,
		headers: resumeHeaders,
		token:   token,
		body:    &buf,
		ctype:   w.FormDataContentType(),
	})
	return err
}

// AttachResume binds the staged upload to the profile and reports the
// portal's status flag.
func (c *Client) AttachResume(ctx context.Context, token, profileID string) (bool, error) {
	const op = "attach resume"

	var body attachResumeRequest
	body.TextCV.FileKey = c.opts.FileKey
	body.TextCV.FormKey = c.opts.FormKey

	req, err := c.jsonRequest(op, http.MethodPost, resumeRoute(profileID, "advResume"), resumeHeaders, token, body)
	if err != nil {
		return false, err
	}
	req.override = http.MethodPut

	resp, err := c.do(ctx, req)
	if err != nil {
		return false, err
	}

	var payload attachResumeResponse
	if err := decode(op, resp, &payload); err != nil {
		return false, err
	}
	return truthy(payload.Status), nil
}

// writeUploadForm writes the fields in the order the portal's widget sends them.
func writeUploadForm(w *multipart.Writer, opts Options, resume model.ResumeArtifact) error {
	if err := w.WriteField("formKey", opts.FormKey); err != nil {
		return err
	}

	part, err := w.CreateFormFile("file", resume.FileName)
	if err != nil {
		return err
	}
	if _, err := part.Write(resume.Content); err != nil {
		return err
	}

	if err := w.WriteField("fileName", resume.FileName); err != nil {
		return err
	}
	if err := w.WriteField("uploadCallback", "true"); err != nil {
		return err
	}
	if err := w.WriteField("fileKey", opts.FileKey); err != nil {
		return err
	}
	return w.Close()
}
