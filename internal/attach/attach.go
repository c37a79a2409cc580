// Package attach loads local files and appends them to a prompt.
package attach

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxFileSize is the largest file that can be attached (256KB)
const MaxFileSize = 256 * 1024

var (
	ErrTooLarge  = errors.New("file too large")
	ErrBinary    = errors.New("file is not text")
	ErrSensitive = errors.New("refusing to attach a sensitive file")
	ErrDirectory = errors.New("path is a directory")
)

// File is an attached file
type File struct {
	Path    string
	Content string
}

// Load reads path for attaching
func Load(path string) (File, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return File{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	if isSensitivePath(absPath) {
		return File{}, fmt.Errorf("%s: %w", path, ErrSensitive)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s: %w", path, ErrDirectory)
	}
	if info.Size() > MaxFileSize {
		return File{}, fmt.Errorf("%s: %w (%d bytes, max %d)", path, ErrTooLarge, info.Size(), MaxFileSize)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return File{}, err
	}
	if !utf8.Valid(content) || strings.ContainsRune(string(content), 0) {
		return File{}, fmt.Errorf("%s: %w", path, ErrBinary)
	}
	return File{Path: path, Content: string(content)}, nil
}

// LoadAll loads every path, stopping at the first failure
func LoadAll(paths []string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// Block formats the file as a fenced markdown block under its path
func (f File) Block() string {
	fence := "```"
	for strings.Contains(f.Content, fence) {
		fence += "`"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "File: %s\n", f.Path)
	sb.WriteString(fence)
	sb.WriteString(language(f.Path))
	sb.WriteString("\n")
	sb.WriteString(f.Content)
	if !strings.HasSuffix(f.Content, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString(fence)
	sb.WriteString("\n")
	return sb.String()
}

// Prompt appends the files to prompt. With no files the prompt is unchanged.
func Prompt(prompt string, files []File) string {
	if len(files) == 0 {
		return prompt
	}
	var sb strings.Builder
	sb.WriteString(prompt)
	for _, f := range files {
		sb.WriteString("\n\n")
		sb.WriteString(f.Block())
	}
	return sb.String()
}

// language returns the fence language for a file, or "" for plain text
func language(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	langs := map[string]string{
		".go":    "go",
		".py":    "python",
		".js":    "javascript",
		".ts":    "typescript",
		".jsx":   "jsx",
		".tsx":   "tsx",
		".rs":    "rust",
		".c":     "c",
		".h":     "c",
		".cpp":   "cpp",
		".hpp":   "cpp",
		".java":  "java",
		".rb":    "ruby",
		".php":   "php",
		".sh":    "bash",
		".bash":  "bash",
		".zsh":   "zsh",
		".yaml":  "yaml",
		".yml":   "yaml",
		".json":  "json",
		".toml":  "toml",
		".sql":   "sql",
		".lua":   "lua",
		".swift": "swift",
		".kt":    "kotlin",
		".hs":    "haskell",
		".md":    "markdown",
	}
	return langs[ext]
}

// isSensitivePath returns true for paths that should never leave the machine
func isSensitivePath(path string) bool {
	sensitive := []string{
		"/.ssh/",
		"/.gnupg/",
		"/.aws/",
		"/.config/gcloud",
		"/etc/shadow",
		"/.netrc",
		"/.npmrc",
		"/.pypirc",
		"/credentials",
		"/.env",
		".pem",
		".key",
		"id_rsa",
		"id_ed25519",
		"id_ecdsa",
	}

	lowerPath := strings.ToLower(filepath.ToSlash(path))
	for _, s := range sensitive {
		if strings.Contains(lowerPath, s) {
			return true
		}
	}
	return false
}
