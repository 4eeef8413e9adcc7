package archive

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ndrandal/market-game/internal/game"
)

// Ext is the save file extension.
const Ext = ".sav"

// SaveFile is the content of a .sav file: gzipped JSON.
type SaveFile struct {
	Name    string     `json:"name"`
	SavedAt time.Time  `json:"saved_at"`
	State   game.State `json:"state"`
}

// Export writes st to w in .sav format.
func Export(w io.Writer, name string, savedAt time.Time, st *game.State) error {
	gz := gzip.NewWriter(w)
	if err := json.NewEncoder(gz).Encode(SaveFile{Name: name, SavedAt: savedAt, State: *st}); err != nil {
		gz.Close()
		return fmt.Errorf("encode save: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("gzip close: %w", err)
	}
	return nil
}

// Import reads a .sav stream.
func Import(r io.Reader) (*SaveFile, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open save: %w", err)
	}
	defer gz.Close()

	var sf SaveFile
	if err := json.NewDecoder(gz).Decode(&sf); err != nil {
		return nil, fmt.Errorf("decode save: %w", err)
	}
	if sf.State.Date == "" {
		return nil, errors.New("decode save: missing game date")
	}
	return &sf, nil
}

// Dir keeps save slots as .sav files in one directory. When the directory
// grows past maxBytes the oldest slots are removed.
type Dir struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	game     *game.Game
}

// NewDir creates a slot directory for g. maxBytes <= 0 disables rotation.
func NewDir(path string, maxBytes int64, g *game.Game) *Dir {
	return &Dir{path: path, maxBytes: maxBytes, game: g}
}

func (d *Dir) file(name string) string {
	return filepath.Join(d.path, name+Ext)
}

// Save writes the current game to the named slot.
func (d *Dir) Save(_ context.Context, name string) (game.SaveInfo, error) {
	if err := game.CheckSaveName(name); err != nil {
		return game.SaveInfo{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return game.SaveInfo{}, fmt.Errorf("mkdir: %w", err)
	}

	st := d.game.Snapshot()
	info := st.Info(name, time.Now().UTC().Truncate(time.Second))

	// A failed write leaves the previous slot intact.
	tmp, err := os.CreateTemp(d.path, name+".*.tmp")
	if err != nil {
		return game.SaveInfo{}, fmt.Errorf("create temp: %w", err)
	}
	if err := Export(tmp, name, info.SavedAt, &st); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return game.SaveInfo{}, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return game.SaveInfo{}, fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.file(name)); err != nil {
		os.Remove(tmp.Name())
		return game.SaveInfo{}, fmt.Errorf("rename: %w", err)
	}

	if fi, err := os.Stat(d.file(name)); err == nil {
		info.Size = fi.Size()
	}
	log.Printf("game saved to %s (game date %s)", d.file(name), st.Date)

	d.rotate(name)
	return info, nil
}

// Load restores the named slot, or the newest slot when name is empty.
// Returns false when there is nothing to load.
func (d *Dir) Load(ctx context.Context, name string) (bool, error) {
	if name == "" {
		saves, err := d.List(ctx)
		if err != nil {
			return false, err
		}
		if len(saves) == 0 {
			log.Println("no save files found, starting fresh")
			return false, nil
		}
		name = saves[0].Name
	} else if err := game.CheckSaveName(name); err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := os.Open(d.file(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	sf, err := Import(f)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	if err := d.game.Restore(sf.State); err != nil {
		return false, fmt.Errorf("restore %s: %w", name, err)
	}
	log.Printf("restored %s (game date %s)", d.file(name), sf.State.Date)
	return true, nil
}

// List returns every readable slot, newest first.
func (d *Dir) List(_ context.Context) ([]game.SaveInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.list()
}

func (d *Dir) list() ([]game.SaveInfo, error) {
	entries, err := os.ReadDir(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return []game.SaveInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	saves := []game.SaveInfo{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		info, err := readInfo(filepath.Join(d.path, e.Name()))
		if err != nil {
			log.Printf("skipping unreadable save %s: %v", e.Name(), err)
			continue
		}
		saves = append(saves, info)
	}
	sort.Slice(saves, func(i, j int) bool {
		if saves[i].SavedAt.Equal(saves[j].SavedAt) {
			return saves[i].Name < saves[j].Name
		}
		return saves[i].SavedAt.After(saves[j].SavedAt)
	})
	return saves, nil
}

func readInfo(path string) (game.SaveInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return game.SaveInfo{}, err
	}
	defer f.Close()

	sf, err := Import(f)
	if err != nil {
		return game.SaveInfo{}, err
	}
	info := sf.State.Info(strings.TrimSuffix(filepath.Base(path), Ext), sf.SavedAt)
	if fi, err := f.Stat(); err == nil {
		info.Size = fi.Size()
	}
	return info, nil
}

// DeleteAll removes every slot.
func (d *Dir) DeleteAll(_ context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	paths, err := filepath.Glob(filepath.Join(d.path, "*"+Ext))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			return n, fmt.Errorf("remove %s: %w", p, err)
		}
		n++
	}
	log.Printf("deleted %d save files", n)
	return n, nil
}

// rotate removes the oldest slots other than keep until the directory is
// under maxBytes.
func (d *Dir) rotate(keep string) {
	if d.maxBytes <= 0 {
		return
	}
	saves, err := d.list()
	if err != nil {
		log.Printf("save rotation: %v", err)
		return
	}

	var total int64
	for _, s := range saves {
		total += s.Size
	}
	for i := len(saves) - 1; i >= 0 && total > d.maxBytes; i-- {
		if saves[i].Name == keep {
			continue
		}
		if err := os.Remove(d.file(saves[i].Name)); err != nil {
			log.Printf("save rotation: remove %s: %v", saves[i].Name, err)
			continue
		}
		total -= saves[i].Size
		log.Printf("save rotation: removed %s (%d bytes)", saves[i].Name, saves[i].Size)
	}
}
