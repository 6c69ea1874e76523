package bridge

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/ValentinKolb/kdb/cmd/util"
	"github.com/ValentinKolb/kdb/lib/abi"
	"github.com/ValentinKolb/kdb/lib/ffi"
	"github.com/ValentinKolb/kdb/lib/kdb"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
)

var log = logger.GetLogger("cmd")

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Runs the C entry points against a leak tracking allocator",
	Long: `Runs a fixed sequence of key and key set operations through the same
entry points the C library exports, then checks that every block of
foreign memory was freed exactly once.`,
	Args: cobra.NoArgs,
	RunE: runSelftest,
}

func init() {
	selftestCmd.Flags().Bool("metrics", false, util.WrapString("Print the bridge counters in Prometheus text format afterwards"))
}

// session is the state shared by the self test steps
type session struct {
	api     *abi.API
	tracker *ffi.TrackingAllocator
	strs    []unsafe.Pointer
}

// cstr returns a C copy of s that is freed when the session ends
func (s *session) cstr(str string) unsafe.Pointer {
	p := ffi.AllocCString(s.tracker, str)
	s.strs = append(s.strs, p)
	return p
}

func (s *session) close() {
	for _, p := range s.strs {
		s.tracker.Free(p)
	}
	s.strs = nil
	s.api.Close()
}

// expect returns an error if got differs from want
func expect[T comparable](what string, got, want T) error {
	if got != want {
		return fmt.Errorf("%s: got %v, want %v", what, got, want)
	}
	return nil
}

// firstErr returns the first non-nil error
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

var selftestSteps = []struct {
	name string
	run  func(s *session) error
}{
	{"binary round trip", func(s *session) error {
		k, err := kdb.ParseKey("user:/app/timeout", []byte("30"))
		if err != nil {
			return err
		}
		fk := s.api.Bridge().ToForeign(k)
		defer s.api.KeyDel(fk)
		back, err := ffi.FromForeign(fk)
		if err != nil {
			return err
		}
		return firstErr(
			expect("name", ffi.GoString(s.api.KeyName(fk)), "user:/app/timeout"),
			expect("binary", s.api.KeyIsBinary(fk), 1),
			expect("value size", s.api.KeyGetValueSize(fk), 2),
			expect("value", string(back.Value().Bytes()), "30"),
		)
	}},
	{"names", func(s *session) error {
		fk := s.api.KeyNew(s.cstr("system:/a"), nil)
		if fk == nil {
			return fmt.Errorf("keyNew failed")
		}
		defer s.api.KeyDel(fk)
		s.api.KeyAddBaseName(fk, s.cstr("b/c"))
		s.api.KeySetNamespace(fk, ffi.EncodeNamespace(kdb.NamespaceUser))
		return firstErr(
			expect("name", ffi.GoString(s.api.KeyName(fk)), `user:/a/b\/c`),
			expect("base name", ffi.GoString(s.api.KeyBaseName(fk)), "b/c"),
		)
	}},
	{"metadata", func(s *session) error {
		fk := s.api.KeyNew(s.cstr("user:/m"), nil)
		if fk == nil {
			return fmt.Errorf("keyNew failed")
		}
		defer s.api.KeyDel(fk)
		s.api.KeySetMeta(fk, s.cstr("type"), s.cstr("long"))
		dup := s.api.KeyDup(fk, abi.CopyAll)
		defer s.api.KeyDel(dup)
		return expect("copied meta", ffi.GoString(s.api.KeyString(s.api.KeyGetMeta(dup, s.cstr("type")))), "long")
	}},
	{"key set ownership", func(s *session) error {
		ks := s.api.KsNew(0, nil)
		for i := 0; i < 100; i++ {
			s.api.KsAppendKey(ks, s.api.KeyNew(s.cstr(fmt.Sprintf("user:/k/%03d", i)), nil))
		}
		k := s.api.KsLookupByName(ks, s.cstr("user:/k/042"), 0)
		refs := s.api.KeyDel(k)
		dup := s.api.KsDup(ks)
		cp := s.api.KeyNew(s.cstr("user:/k"), nil)
		cut := s.api.KsCut(dup, cp)
		s.api.KeyDel(cp)
		err := firstErr(
			expect("size", s.api.KsGetSize(ks), 100),
			expect("keyDel on member", refs, 1),
			expect("cut size", s.api.KsGetSize(cut), 100),
			expect("shared refs", s.api.KeyGetRef(k), 2),
		)
		s.api.KsDel(cut)
		s.api.KsDel(dup)
		s.api.KsDel(ks)
		return err
	}},
}

func runSelftest(cmd *cobra.Command, _ []string) error {
	api, tracker := util.NewTrackedAPI(conf)
	s := &session{api: api, tracker: tracker}

	failed := 0
	for _, step := range selftestSteps {
		if err := step.run(s); err != nil {
			failed++
			fmt.Printf("%-20sFAIL %v\n", step.name, err)
			continue
		}
		fmt.Printf("%-20sok\n", step.name)
	}
	s.close()

	fmt.Println()
	fmt.Printf("allocations: %s\n", tracker.Stats())
	leakErr := tracker.Check()
	if leakErr != nil {
		log.Errorf("leaked blocks: %v", tracker.Leaks())
	}

	if withMetrics, _ := cmd.Flags().GetBool("metrics"); withMetrics {
		fmt.Println()
		ffi.WritePrometheus(os.Stdout)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, len(selftestSteps))
	}
	return leakErr
}
