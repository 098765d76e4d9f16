// Package storage owns the protected documents directory: a filesystem
// location one level outside the publicly servable web root, where document
// files physically live.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

const (
	optionKey = "document_portal_directory"
	dirName   = "documents"
)

// OptionStore is the durable configuration store the resolved path is cached
// in, so it survives across processes without recomputation.
type OptionStore interface {
	Get(name string) string
	Set(name, value string) error
	Delete(name string) error
}

var (
	// Fs is the filesystem all file IO goes through. Tests swap in a memfs.
	Fs afero.Fs = afero.NewOsFs()

	// Options is replaced with the database-backed store at boot.
	Options OptionStore = newMapStore()

	// directory is the per-process cache of the resolved path.
	directory string
)

// WebRoot returns the absolute path of the publicly servable directory.
func WebRoot() string {
	dir := os.Getenv("PUBLIC_DIR")
	if dir == "" {
		dir = "public"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// Activate resolves and creates the protected directory, persists its
// location, and drops a guard page in it. The primary location is a sibling
// of the web root; if that cannot be created the fallback is private app
// storage under var/. Neither location is ever inside the web root. An error
// here must abort startup: silently uploading into a servable directory
// would defeat the whole point.
func Activate() error {
	root := WebRoot()
	primary := filepath.Join(filepath.Dir(root), dirName)

	dir := primary
	if err := prepare(dir); err != nil {
		log.Warn("could not create protected directory next to the web root, falling back to private app storage",
			"dir", primary, "err", err)
		fallback, absErr := filepath.Abs(filepath.Join("var", dirName))
		if absErr != nil {
			fallback = filepath.Join("var", dirName)
		}
		if err := prepare(fallback); err != nil {
			return fmt.Errorf(
				"cannot create a writable protected documents directory at %q or %q; create one of them manually, writable by the service user, then restart: %w",
				primary, fallback, err)
		}
		dir = fallback
	}

	if err := Options.Set(optionKey, dir); err != nil {
		return fmt.Errorf("protected directory %q created but its location could not be persisted: %w", dir, err)
	}
	directory = dir
	log.Info("protected documents directory ready", "dir", dir)
	return nil
}

// prepare creates dir, proves it is writable, and writes a guard page that
// bounces direct hits to the portal in case the directory is ever exposed by
// a misconfigured static file server.
func prepare(dir string) error {
	if err := Fs.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	guard := filepath.Join(dir, "index.html")
	content := "<!doctype html>\n<meta http-equiv=\"refresh\" content=\"0; url=/portal\">\n"
	return afero.WriteFile(Fs, guard, []byte(content), 0o640)
}

// Dir returns the protected directory path. The first call per process
// resolves it from the options store; "" means the portal was never
// activated.
func Dir() string {
	if directory == "" {
		directory = Options.Get(optionKey)
	}
	return directory
}

// Deactivate invalidates the cached location, in memory and in the options
// store. It does not delete the directory or its files.
func Deactivate() error {
	directory = ""
	return Options.Delete(optionKey)
}

type mapStore struct{ m map[string]string }

func newMapStore() *mapStore { return &mapStore{m: make(map[string]string)} }

func (s *mapStore) Get(name string) string { return s.m[name] }

func (s *mapStore) Set(name, value string) error {
	s.m[name] = value
	return nil
}

func (s *mapStore) Delete(name string) error {
	delete(s.m, name)
	return nil
}
