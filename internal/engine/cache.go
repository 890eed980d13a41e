package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"treelint/internal/config"
	"treelint/internal/diag"
	"treelint/internal/rules"
	"treelint/internal/source"
)

// Increment when the CachedRun layout changes.
const cacheSchemaVersion uint16 = 1

// Digest identifies cache entries; sha256 of the document bytes mixed
// with the run fingerprint.
type Digest [sha256.Size]byte

// ResultCache stores finished runs on disk so unchanged documents skip
// the walk entirely. Thread-safe for concurrent access.
type ResultCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedRun is the serialized outcome of one tree check. Spans are kept
// as raw offsets; the caller rebinds them to its own FileSet on load.
type CachedRun struct {
	Schema      uint16
	Diagnostics []CachedDiagnostic
}

// CachedDiagnostic mirrors diag.Diagnostic without the FileID, which is
// only meaningful within the FileSet that produced it.
type CachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Start    uint32
	End      uint32
	Message  string
	RuleID   string
	Notes    []CachedNote
}

type CachedNote struct {
	Start   uint32
	End     uint32
	Message string
}

// OpenResultCache initializes the cache at the standard location.
func OpenResultCache(app string) (*ResultCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ResultCache{dir: dir}, nil
}

// OpenResultCacheAt uses an explicit directory, mainly for tests.
func OpenResultCacheAt(dir string) (*ResultCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ResultCache{dir: dir}, nil
}

func (c *ResultCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "runs", hexKey+".mp")
}

// Key derives the cache key from the raw document bytes and the run
// fingerprint. Either changing invalidates the entry.
func Key(doc []byte, fingerprint Digest) Digest {
	h := sha256.New()
	h.Write(doc)
	h.Write(fingerprint[:])
	var key Digest
	h.Sum(key[:0])
	return key
}

// Fingerprint hashes the parts of the configuration that influence a
// run: which rules are enabled and at what severity. Rule IDs are
// hashed in sorted order so map iteration cannot perturb the key.
func Fingerprint(cfg *config.Config, registry *rules.Registry) Digest {
	if cfg == nil {
		cfg = config.Default()
	}
	if registry == nil {
		registry = rules.Default()
	}
	h := sha256.New()
	fmt.Fprintf(h, "schema=%d\n", cacheSchemaVersion)
	all := registry.All()
	sort.Slice(all, func(i, j int) bool { return all[i].ID() < all[j].ID() })
	for _, rule := range all {
		fmt.Fprintf(h, "%s enabled=%t sev=%d\n",
			rule.ID(), cfg.RuleEnabled(rule.ID()), cfg.RuleSeverity(rule))
	}
	var d Digest
	h.Sum(d[:0])
	return d
}

// Put serializes and writes a run to the disk cache. The write goes
// through a temp file and rename so readers never see a torn entry.
func (c *ResultCache) Put(key Digest, run *CachedRun) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(run); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a run from the disk cache. Returns false on miss or schema
// mismatch; a stale schema is a miss, not an error.
func (c *ResultCache) Get(key Digest, out *CachedRun) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, err
	}
	if out.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll removes every cached run, for --no-cache style invalidation.
func (c *ResultCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "runs"))
}

// PackRun flattens a finished result into its cacheable form.
func PackRun(res *Result) *CachedRun {
	run := &CachedRun{Schema: cacheSchemaVersion}
	if res == nil || res.Bag == nil {
		return run
	}
	for _, d := range res.Bag.Items() {
		cd := CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Start:    d.Primary.Start,
			End:      d.Primary.End,
			Message:  d.Message,
			RuleID:   d.RuleID,
		}
		for _, note := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{
				Start:   note.Span.Start,
				End:     note.Span.End,
				Message: note.Msg,
			})
		}
		run.Diagnostics = append(run.Diagnostics, cd)
	}
	return run
}

// UnpackRun rebinds a cached run to a file in the current FileSet.
func UnpackRun(run *CachedRun, fileID source.FileID, maxDiagnostics int) *diag.Bag {
	bag := diag.NewBag(maxDiagnostics)
	if run == nil {
		return bag
	}
	for _, cd := range run.Diagnostics {
		span := source.Span{File: fileID, Start: cd.Start, End: cd.End}
		d := diag.New(diag.Severity(cd.Severity), diag.Code(cd.Code), span, cd.Message)
		if cd.RuleID != "" {
			d = d.WithRule(cd.RuleID)
		}
		for _, note := range cd.Notes {
			noteSpan := source.Span{File: fileID, Start: note.Start, End: note.End}
			d = d.WithNote(noteSpan, note.Message)
		}
		bag.Add(d)
	}
	return bag
}
