package runtime

import (
	"reflect"
	"testing"

	"github.com/justapithecus/icupack/types"
)

func TestCompilerArgs(t *testing.T) {
	req := CompileRequest{SourceDir: "S", OutDir: "O", TmpDir: "T", ToolDir: "D"}

	got := CompilerArgs(types.PlatformWindows, req, false)
	want := []string{"--mode", "windows-exec", "--src_dir", "S", "--out_dir", "O", "--tmp_dir", "T", "--tool_dir", "D", "--seqmode", "parallel"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CompilerArgs() = %v\nwant %v", got, want)
	}

	req.IncludeCoreData = true
	got = CompilerArgs(types.PlatformDarwin, req, true)
	want = []string{"--mode", "unix-exec", "--src_dir", "S", "--out_dir", "O", "--tmp_dir", "T", "--tool_dir", "D", "--seqmode", "parallel", "--include_uni_core_data", "--verbose"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CompilerArgs() = %v\nwant %v", got, want)
	}
}

func TestArchiverArgs(t *testing.T) {
	tests := []struct {
		verbose bool
		want    []string
	}{
		{false, []string{"-m", "common", "-p", "icudt79l", "-c", "-s", "frag", "-d", "tmp", "tmp/icudt79l.lst"}},
		{true, []string{"-v", "-m", "common", "-p", "icudt79l", "-c", "-s", "frag", "-d", "tmp", "tmp/icudt79l.lst"}},
	}
	for _, tt := range tests {
		got := ArchiverArgs("frag", "tmp/icudt79l.lst", "icudt79l", "tmp", tt.verbose)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ArchiverArgs(verbose=%v) = %v\nwant %v", tt.verbose, got, tt.want)
		}
	}
}

func TestEmitterArgs(t *testing.T) {
	tests := []struct {
		name    string
		flavor  types.AssemblyFlavor
		verbose bool
		want    []string
	}{
		{
			name:   "gcc",
			flavor: types.FlavorGCC,
			want:   []string{"--assembly", "gcc", "--name", "icudt79", "--entrypoint", "icudt79", "--destdir", "out", "tmp/icudt79l.dat"},
		},
		{
			name:    "gcc-darwin verbose",
			flavor:  types.FlavorGCCDarwin,
			verbose: true,
			want:    []string{"-v", "--assembly", "gcc-darwin", "--name", "icudt79", "--entrypoint", "icudt79", "--destdir", "out", "tmp/icudt79l.dat"},
		},
		{
			name:   "object file",
			flavor: types.FlavorNone,
			want:   []string{"--name", "icudt79", "--entrypoint", "icudt79", "--destdir", "out", "tmp/icudt79l.dat"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EmitterArgs(tt.flavor, "tmp/icudt79l.dat", "icudt79", "out", tt.verbose)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EmitterArgs() = %v\nwant %v", got, tt.want)
			}
		})
	}
}
