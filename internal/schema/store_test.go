package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/starford/berkano/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testContentType() ContentType {
	return ContentType{
		Key:       uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Alias:     "hero",
		IsElement: true,
		Variation: VariationCulture,
		Properties: []PropertyDefinition{
			{Alias: "title", Variation: VariationCulture},
			{Alias: "subtitle"},
		},
	}
}

func testDataType() DataType {
	return DataType{
		Key:         uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"),
		Alias:       "heroList",
		EditorAlias: "Berkano.BlockList",
		Blocks: []models.BlockConfiguration{
			{ContentTypeKey: uuid.MustParse("11111111-1111-1111-1111-111111111111")},
		},
	}
}

func TestStoreContentTypeRoundTrip(t *testing.T) {
	store := openTestStore(t)
	want := testContentType()

	if err := store.UpsertContentType(want, "types.yaml"); err != nil {
		t.Fatal(err)
	}

	got, ok := store.ContentType(want.Key)
	if !ok {
		t.Fatal("content type not found by key")
	}
	if got.Alias != want.Alias || !got.IsElement || got.Variation != VariationCulture {
		t.Errorf("got %+v", got)
	}
	if len(got.Properties) != 2 || got.Properties[0].Alias != "title" || got.Properties[0].Variation != VariationCulture {
		t.Errorf("properties = %+v", got.Properties)
	}

	byAlias, ok := store.ContentTypeByAlias("hero")
	if !ok || byAlias.Key != want.Key {
		t.Error("lookup by alias failed")
	}

	if _, ok := store.ContentType(uuid.New()); ok {
		t.Error("unknown key should not resolve")
	}
}

func TestStoreUpsertReplaces(t *testing.T) {
	store := openTestStore(t)
	ct := testContentType()
	if err := store.UpsertContentType(ct, "a.yaml"); err != nil {
		t.Fatal(err)
	}

	ct.Alias = "heroV2"
	ct.Properties = ct.Properties[:1]
	if err := store.UpsertContentType(ct, "b.yaml"); err != nil {
		t.Fatal(err)
	}

	got, ok := store.ContentType(ct.Key)
	if !ok {
		t.Fatal("content type vanished")
	}
	if got.Alias != "heroV2" || len(got.Properties) != 1 {
		t.Errorf("upsert did not replace: %+v", got)
	}

	all, err := store.ListContentTypes()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("list len = %d, want 1", len(all))
	}
}

func TestStoreDataTypeRoundTrip(t *testing.T) {
	store := openTestStore(t)
	want := testDataType()

	if err := store.UpsertDataType(want, "types.yaml"); err != nil {
		t.Fatal(err)
	}

	got, ok := store.DataTypeByAlias("heroList")
	if !ok {
		t.Fatal("data type not found by alias")
	}
	if got.Key != want.Key || got.EditorAlias != "Berkano.BlockList" {
		t.Errorf("got %+v", got)
	}
	if len(got.Blocks) != 1 || got.Blocks[0].ContentTypeKey != want.Blocks[0].ContentTypeKey {
		t.Errorf("blocks = %+v", got.Blocks)
	}

	all, err := store.ListDataTypes()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("list len = %d, want 1", len(all))
	}
}

func TestStoreDeleteBySource(t *testing.T) {
	store := openTestStore(t)
	ct := testContentType()
	dt := testDataType()

	if err := store.UpsertContentType(ct, "a.yaml"); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertDataType(dt, "a.yaml"); err != nil {
		t.Fatal(err)
	}
	other := testContentType()
	other.Key = uuid.New()
	other.Alias = "kept"
	if err := store.UpsertContentType(other, "b.yaml"); err != nil {
		t.Fatal(err)
	}

	contentKeys, dataKeys, err := store.DeleteBySource("a.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(contentKeys) != 1 || contentKeys[0] != ct.Key {
		t.Errorf("content keys = %v", contentKeys)
	}
	if len(dataKeys) != 1 || dataKeys[0] != dt.Key {
		t.Errorf("data keys = %v", dataKeys)
	}

	if _, ok := store.ContentType(ct.Key); ok {
		t.Error("deleted content type still resolves")
	}
	if _, ok := store.ContentType(other.Key); !ok {
		t.Error("content type from another manifest was removed")
	}
}

func TestStoreManifestChecksums(t *testing.T) {
	store := openTestStore(t)

	if cs := store.ManifestChecksum("types.yaml"); cs != "" {
		t.Errorf("unknown manifest checksum = %q, want empty", cs)
	}

	if err := store.SetManifestChecksum("types.yaml", "abc"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetManifestChecksum("types.yaml", "def"); err != nil {
		t.Fatal(err)
	}
	if cs := store.ManifestChecksum("types.yaml"); cs != "def" {
		t.Errorf("checksum = %q, want def", cs)
	}

	all, err := store.AllManifestChecksums()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all["types.yaml"] != "def" {
		t.Errorf("all checksums = %v", all)
	}
}

func TestStoreOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}
