package cmd

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/stemhistory/config"
	"github.com/masmgr/stemhistory/internal/store"
)

// saveEntities writes one store file per entity under the default store
// config, relative to the working directory.
func saveEntities(t *testing.T, fs afero.Fs, cfg config.StoreConfig, entities map[string][]store.Record) {
	t.Helper()
	for entity, records := range entities {
		fileStore := store.NewFileStore(fs, cfg.PathFor(entity), store.LayoutMap, entity)
		if err := fileStore.Save(store.Store{entity: records}); err != nil {
			t.Fatalf("save %s: %v", entity, err)
		}
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}

func TestStoreFiles_GlobsDefaultStoreDir(t *testing.T) {
	chdir(t, t.TempDir())
	fs := afero.NewOsFs()
	cfg := config.DefaultConfig().Store
	saveEntities(t, fs, cfg, map[string][]store.Record{
		"kaz": {{Revision: 1, Metric: 10}},
		"kir": {{Revision: 2, Metric: 12}},
		"tat": {{Revision: 3, Metric: 9}},
	})
	if err := afero.WriteFile(fs, "notes.txt", []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{pattern: "k*", want: []string{"kaz", "kir"}},
		{pattern: "tat", want: []string{"tat"}},
		{pattern: "*", want: []string{"kaz", "kir", "tat"}},
		{pattern: "rus", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			files, err := storeFiles(fs, cfg, tt.pattern)
			if err != nil {
				t.Fatalf("storeFiles: %v", err)
			}
			var got []string
			for _, f := range files {
				if !filepath.IsAbs(f.path) {
					t.Errorf("path %q is not absolute", f.path)
				}
				got = append(got, f.entity)
			}
			sort.Strings(got)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("entities mismatch (-want +got):\n%s", diff)
			}

			s, err := loadStores(fs, files, store.LayoutMap)
			if err != nil {
				t.Fatalf("loadStores: %v", err)
			}
			if diff := cmp.Diff(tt.want, s.Entities(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("loaded entities mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreFiles_SharedFile(t *testing.T) {
	cfg := config.StoreConfig{Dir: "/var/lib/stems", FileTemplate: "all.json"}

	files, err := storeFiles(afero.NewMemMapFs(), cfg, "k*")
	if err != nil {
		t.Fatalf("storeFiles: %v", err)
	}
	want := []storeFile{{path: filepath.Join("/var/lib/stems", "all.json"), entity: "k*"}}
	if diff := cmp.Diff(want, files, cmp.AllowUnexported(storeFile{})); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestEntityFromPath(t *testing.T) {
	tests := []struct {
		template string
		path     string
		want     string
		wantOK   bool
	}{
		{template: "{entity}.json", path: "kaz.json", want: "kaz", wantOK: true},
		{template: "stems-{entity}.json", path: "stems-kaz-tat.json", want: "kaz-tat", wantOK: true},
		{template: "{entity}/history.json", path: "kir/history.json", want: "kir", wantOK: true},
		{template: "{entity}/{entity}.json", path: "tat/tat.json", want: "tat", wantOK: true},
		{template: "stems-{entity}.json", path: "other-kaz.json"},
		{template: "{entity}.json", path: ".json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := entityFromPath(tt.template, tt.path)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("entityFromPath(%q, %q) = %q, %v; expected %q, %v", tt.template, tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestShowAction_WithoutStorePath(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	fs := afero.NewOsFs()
	saveEntities(t, fs, config.DefaultConfig().Store, map[string][]store.Record{
		"kaz": {{Revision: 1, Metric: 10}, {Revision: 4, Metric: 14}},
		"kir": {{Revision: 2, Metric: 12}},
		"tat": {{Revision: 3, Metric: 9}},
	})
	outPath := filepath.Join(dir, "timeline.json")

	app := &cli.App{
		Name:     "test",
		Writer:   io.Discard,
		Commands: []*cli.Command{ShowCmd()},
	}
	if err := app.Run([]string{"test", "show", "-f", "json", "-o", outPath, "k*"}); err != nil {
		t.Fatalf("show: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var report struct {
		TotalRecords int `json:"totalRecords"`
		Series       []struct {
			Entity string `json:"entity"`
		} `json:"series"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	var entities []string
	for _, s := range report.Series {
		entities = append(entities, s.Entity)
	}
	if diff := cmp.Diff([]string{"kaz", "kir"}, entities); diff != "" {
		t.Errorf("series mismatch (-want +got):\n%s", diff)
	}
	if report.TotalRecords != 3 {
		t.Errorf("TotalRecords = %d, expected 3", report.TotalRecords)
	}
}

func TestShowAction_RejectsUnknownFormat(t *testing.T) {
	app := &cli.App{
		Name:     "test",
		Writer:   io.Discard,
		Commands: []*cli.Command{ShowCmd()},
	}
	if err := app.Run([]string{"test", "show", "-f", "jsn", "k*", filepath.Join(t.TempDir(), "s.json")}); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
