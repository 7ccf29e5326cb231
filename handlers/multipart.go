package handlers

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// defaultSpoolMemory is how much of a file part is held in memory before it
// spills to a temporary file.
const defaultSpoolMemory = 10 << 20

// uploadPart is the file part of an upload, spooled so its size is known
// before it reaches the store.
type uploadPart struct {
	body        io.Reader
	tmp         *os.File
	filename    string
	contentType string
	size        int64
}

// Close removes the spill file, if any.
func (p *uploadPart) Close() error {
	if p.tmp == nil {
		return nil
	}
	return errors.Join(p.tmp.Close(), os.Remove(p.tmp.Name()))
}

// readFilePart streams the multipart body and returns the first part named
// field that carries a filename parameter. An empty filename still counts;
// only a missing parameter makes a part a plain value. Returns
// http.ErrMissingFile when no such part exists.
func readFilePart(req *http.Request, field string, memLimit int64) (*uploadPart, error) {
	mr, err := req.MultipartReader()
	if err != nil {
		return nil, err
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, http.ErrMissingFile
		}
		if err != nil {
			return nil, err
		}

		filename, ok := fileName(part.Header.Get("Content-Disposition"), field)
		if !ok {
			continue
		}

		up := &uploadPart{
			filename:    filename,
			contentType: part.Header.Get("Content-Type"),
		}
		if err := up.spool(part, memLimit); err != nil {
			_ = up.Close()
			return nil, err
		}
		return up, nil
	}
}

// fileName reports the filename parameter of a form-data disposition for
// field. Non-empty names are reduced to their base, as multipart.Part does.
func fileName(disposition, field string) (string, bool) {
	d, params, err := mime.ParseMediaType(disposition)
	if err != nil || d != "form-data" || params["name"] != field {
		return "", false
	}
	name, ok := params["filename"]
	if !ok {
		return "", false
	}
	if name != "" {
		name = filepath.Base(name)
	}
	return name, true
}

func (p *uploadPart) spool(r io.Reader, memLimit int64) error {
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, r, memLimit+1)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if n <= memLimit {
		p.body = bytes.NewReader(buf.Bytes())
		p.size = n
		return nil
	}

	f, err := os.CreateTemp("", "blobdrop-upload-*")
	if err != nil {
		return err
	}
	p.tmp = f

	size, err := io.Copy(f, io.MultiReader(&buf, r))
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	p.body = f
	p.size = size
	return nil
}
