package archive

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ndrandal/market-game/internal/game"
	"github.com/ndrandal/market-game/internal/ledger"
)

func newGame(t *testing.T) *game.Game {
	t.Helper()
	opts := game.DefaultOptions()
	opts.TicksPerDay = 1
	g, err := game.New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func readNDJSON(t *testing.T, path string) []archivedTx {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	var out []archivedTx
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		var tx archivedTx
		if err := json.Unmarshal(sc.Bytes(), &tx); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		out = append(out, tx)
	}
	return out
}

func TestGroupByDay(t *testing.T) {
	d1 := time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)
	d2 := time.Date(2023, 3, 2, 0, 0, 0, 0, time.UTC)
	batches := groupByDay([]archivedTx{
		{Transaction: ledger.Transaction{ID: "a", At: d1}},
		{Transaction: ledger.Transaction{ID: "b", At: d1.Add(time.Hour)}},
		{Transaction: ledger.Transaction{ID: "c", At: d2}},
	})
	if len(batches["2023/03/01"]) != 2 || len(batches["2023/03/02"]) != 1 {
		t.Fatalf("batches = %v", batches)
	}
}

func TestWriteBatchAppends(t *testing.T) {
	root := t.TempDir()
	at := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	first := []archivedTx{{Transaction: ledger.Transaction{ID: "a", Kind: ledger.TxBuy, Symbol: "000858", At: at}}}
	second := []archivedTx{{Transaction: ledger.Transaction{ID: "b", Kind: ledger.TxSell, Symbol: "000858", At: at}}}

	if err := writeBatch(root, "2023/03/01", first); err != nil {
		t.Fatalf("writeBatch: %v", err)
	}
	if err := writeBatch(root, "2023/03/01", second); err != nil {
		t.Fatalf("writeBatch: %v", err)
	}

	got := readNDJSON(t, filepath.Join(root, "2023", "03", "01.jsonl.gz"))
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("archived = %+v", got)
	}
	if got[1].Kind != ledger.TxSell || got[1].Symbol != "000858" {
		t.Fatalf("second entry = %+v", got[1])
	}
}

func TestRotateRemovesOldestFirst(t *testing.T) {
	root := t.TempDir()
	for _, day := range []string{"2023/01/01", "2023/01/02", "2023/01/03"} {
		path := filepath.Join(root, day+".jsonl.gz")
		os.MkdirAll(filepath.Dir(path), 0o755)
		if err := os.WriteFile(path, bytes.Repeat([]byte{'x'}, 100), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	rotate(root, 150)

	if _, err := os.Stat(filepath.Join(root, "2023/01/01.jsonl.gz")); !os.IsNotExist(err) {
		t.Fatal("oldest archive should be removed")
	}
	if _, err := os.Stat(filepath.Join(root, "2023/01/02.jsonl.gz")); !os.IsNotExist(err) {
		t.Fatal("second archive should be removed")
	}
	if _, err := os.Stat(filepath.Join(root, "2023/01/03.jsonl.gz")); err != nil {
		t.Fatal("newest archive should be kept")
	}
}

func TestExportImport(t *testing.T) {
	g := newGame(t)
	g.Tick()
	st := g.Snapshot()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	if err := Export(&buf, "slot1", at, &st); err != nil {
		t.Fatalf("Export: %v", err)
	}
	sf, err := Import(&buf)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if sf.Name != "slot1" || !sf.SavedAt.Equal(at) || sf.State.Date != st.Date {
		t.Fatalf("imported = %s %v %s", sf.Name, sf.SavedAt, sf.State.Date)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	if _, err := Import(bytes.NewReader([]byte("not gzip"))); err == nil {
		t.Fatal("expected error for non-gzip input")
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte(`{"name":"x","state":{}}`))
	gz.Close()
	if _, err := Import(&buf); err == nil {
		t.Fatal("expected error for missing game date")
	}
}

func TestDirSaveLoadList(t *testing.T) {
	ctx := context.Background()
	g := newGame(t)
	d := NewDir(t.TempDir(), 0, g)

	if _, err := d.Save(ctx, "first"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	want := g.Date()
	for i := 0; i < 3; i++ {
		g.Tick()
	}
	if g.Date().Equal(want) {
		t.Fatal("game did not advance")
	}

	ok, err := d.Load(ctx, "first")
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if !g.Date().Equal(want) {
		t.Fatalf("date after load = %v, want %v", g.Date(), want)
	}

	saves, err := d.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(saves) != 1 || saves[0].Name != "first" || saves[0].Size == 0 {
		t.Fatalf("saves = %+v", saves)
	}
}

func TestDirLoadMissing(t *testing.T) {
	ctx := context.Background()
	d := NewDir(filepath.Join(t.TempDir(), "none"), 0, newGame(t))
	if ok, err := d.Load(ctx, ""); ok || err != nil {
		t.Fatalf("Load(empty dir) = %v, %v", ok, err)
	}
	if ok, err := d.Load(ctx, "nosuch"); ok || err != nil {
		t.Fatalf("Load(nosuch) = %v, %v", ok, err)
	}
}

func TestDirRejectsBadName(t *testing.T) {
	d := NewDir(t.TempDir(), 0, newGame(t))
	if _, err := d.Save(context.Background(), "../escape"); err == nil {
		t.Fatal("expected error for path-like name")
	}
}

func TestDirRotationKeepsNewest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	d := NewDir(dir, 1, newGame(t))

	if _, err := d.Save(ctx, "a"); err != nil {
		t.Fatalf("Save a: %v", err)
	}
	if _, err := d.Save(ctx, "b"); err != nil {
		t.Fatalf("Save b: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a"+Ext)); !os.IsNotExist(err) {
		t.Fatal("older slot should be rotated out")
	}
	if _, err := os.Stat(filepath.Join(dir, "b"+Ext)); err != nil {
		t.Fatalf("newest slot missing: %v", err)
	}
}

func TestDirDeleteAll(t *testing.T) {
	ctx := context.Background()
	d := NewDir(t.TempDir(), 0, newGame(t))
	d.Save(ctx, "a")
	d.Save(ctx, "b")
	n, err := d.DeleteAll(ctx)
	if err != nil || n != 2 {
		t.Fatalf("DeleteAll = %d, %v", n, err)
	}
	saves, _ := d.List(ctx)
	if len(saves) != 0 {
		t.Fatalf("saves left = %d", len(saves))
	}
}
