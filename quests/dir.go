package quests

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nathoo/questrun/engine/errs"
	"github.com/nathoo/questrun/types"
)

const fence = "---"

// DirStore keeps one Markdown note per quest in a directory, with the quest
// fields in YAML frontmatter. Frontmatter keys it does not own and the note
// body are preserved on write.
type DirStore struct {
	dir string
}

// NewDirStore opens (creating if needed) a quest directory.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating quest dir: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (d *DirStore) Dir() string { return d.dir }

func (d *DirStore) path(ref string) string {
	return filepath.Join(d.dir, ref+".md")
}

func (d *DirStore) Get(_ context.Context, ref string) (types.Quest, error) {
	if !ValidRef(ref) {
		return types.Quest{}, errs.NotFound("quest", ref)
	}
	fm, body, err := d.read(ref)
	if err != nil {
		return types.Quest{}, err
	}
	return Decode(ref, fm, body)
}

func (d *DirStore) Put(_ context.Context, q types.Quest) error {
	if !ValidRef(q.Ref) {
		return errs.Blocked(errs.InvalidInput, "invalid quest ref %q", q.Ref)
	}
	fm, _, err := d.read(q.Ref)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	fm = Encode(q, fm)

	data, err := Render(fm, q.Body)
	if err != nil {
		return fmt.Errorf("encoding quest %s: %w", q.Ref, err)
	}
	tmp := d.path(q.Ref) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing quest %s: %w", q.Ref, err)
	}
	if err := os.Rename(tmp, d.path(q.Ref)); err != nil {
		return fmt.Errorf("writing quest %s: %w", q.Ref, err)
	}
	return nil
}

func (d *DirStore) Delete(_ context.Context, ref string) error {
	if !ValidRef(ref) {
		return errs.NotFound("quest", ref)
	}
	if err := os.Remove(d.path(ref)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errs.NotFound("quest", ref)
		}
		return fmt.Errorf("deleting quest %s: %w", ref, err)
	}
	return nil
}

func (d *DirStore) List(ctx context.Context) ([]types.Quest, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("reading quest dir: %w", err)
	}
	// ReadDir returns entries sorted by filename.
	var out []types.Quest
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		q, err := d.Get(ctx, strings.TrimSuffix(e.Name(), ".md"))
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func (d *DirStore) read(ref string) (map[string]any, string, error) {
	data, err := os.ReadFile(d.path(ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", errs.NotFound("quest", ref)
		}
		return nil, "", fmt.Errorf("reading quest %s: %w", ref, err)
	}
	fm, body, err := Parse(data)
	if err != nil {
		return nil, "", fmt.Errorf("quest %s: %w", ref, err)
	}
	return fm, body, nil
}

// Parse splits a note into its YAML frontmatter and body. A note without a
// leading fence has empty frontmatter.
func Parse(data []byte) (map[string]any, string, error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	text := string(data)
	if !strings.HasPrefix(text, fence+"\n") {
		return map[string]any{}, text, nil
	}
	rest := text[len(fence)+1:]
	var head, body string
	switch {
	case strings.HasPrefix(rest, fence+"\n"):
		body = rest[len(fence)+1:]
	case rest == fence:
	default:
		end := strings.Index(rest, "\n"+fence+"\n")
		if end < 0 {
			if !strings.HasSuffix(rest, "\n"+fence) {
				return nil, "", errors.New("unterminated frontmatter")
			}
			end = len(rest) - len(fence) - 1
			head = rest[:end]
		} else {
			head = rest[:end]
			body = rest[end+len(fence)+2:]
		}
	}

	fm := map[string]any{}
	if err := yaml.Unmarshal([]byte(head), &fm); err != nil {
		return nil, "", fmt.Errorf("parsing frontmatter: %w", err)
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return fm, body, nil
}

// Render joins frontmatter and body into a note.
func Render(fm map[string]any, body string) ([]byte, error) {
	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	buf.Write(head)
	buf.WriteString(fence + "\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}
