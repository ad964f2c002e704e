package material

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
)

// ErrNoMaterial signals that the material directory holds no PDF files.
// Callers must treat it, like any other load error, as "material unavailable"
// and keep the conversation entry point disabled.
var ErrNoMaterial = errors.New("no course material found")

type Material struct {
	Text  string
	Files []string
}

// Loader extracts the text of every PDF in a directory exactly once and
// caches the result for the process lifetime.
type Loader struct {
	dir  string
	once sync.Once
	mat  *Material
	err  error
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

func (l *Loader) Load() (*Material, error) {
	l.once.Do(func() {
		l.mat, l.err = scan(l.dir)
	})
	return l.mat, l.err
}

func scan(dir string) (*Material, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read material dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, ErrNoMaterial
	}
	sort.Strings(files)

	var b strings.Builder
	for _, name := range files {
		if err := appendPDFText(&b, filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", name, err)
		}
	}
	return &Material{Text: b.String(), Files: files}, nil
}

func appendPDFText(b *strings.Builder, path string) (err error) {
	// The pdf reader panics on some malformed files; a broken PDF must
	// degrade to "material unavailable", not crash the server.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return fmt.Errorf("page %d: %w", i, err)
		}
		if text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return nil
}
