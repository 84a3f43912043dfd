package email

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveAttachments writes every attachment to <dir>/<folder>/<filename>,
// replacing files of the same name. It returns the written paths.
func (v *MessageView) SaveAttachments(dir string) ([]string, error) {
	if len(v.Attachments) == 0 {
		return nil, nil
	}
	folder, err := v.ensureFolder(dir)
	if err != nil {
		return nil, err
	}

	saved := make([]string, 0, len(v.Attachments))
	for _, att := range v.Attachments {
		name := filepath.Base(att.Filename)
		if name == "." || name == ".." || name == string(filepath.Separator) {
			continue
		}
		target := filepath.Join(folder, name)
		if err := os.WriteFile(target, att.Data, 0o644); err != nil {
			return saved, fmt.Errorf("save attachment %s: %w", name, err)
		}
		saved = append(saved, target)
	}
	return saved, nil
}

// WriteHTML writes the HTML body to <dir>/<folder>/index.html.
func (v *MessageView) WriteHTML(dir string) (string, error) {
	folder, err := v.ensureFolder(dir)
	if err != nil {
		return "", err
	}
	target := filepath.Join(folder, "index.html")
	if err := os.WriteFile(target, []byte(v.HTML), 0o644); err != nil {
		return "", fmt.Errorf("write html preview: %w", err)
	}
	return target, nil
}

func (v *MessageView) ensureFolder(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	folder := filepath.Join(dir, v.Folder())
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("create folder %s: %w", folder, err)
	}
	return folder, nil
}
