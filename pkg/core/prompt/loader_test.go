package prompt

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadFromFS_IDAndCategoryFromPath(t *testing.T) {
	fsys := fstest.MapFS{
		"prompts/flows/sample.json":  {Data: []byte(`{"name":"Sample","user_prompt_template":"hi {{.Name}}"}`)},
		"prompts/top.json":           {Data: []byte(`{"id":"custom.id","name":"Top"}`)},
		"prompts/flows/readme.txt":   {Data: []byte("ignored")},
		"schemas/sample_schema.json": {Data: []byte(`{"type":"object","required":["answer"]}`)},
	}

	r := NewRegistry()
	n, err := LoadFromFS(r, fsys)
	if err != nil {
		t.Fatalf("LoadFromFS: %v", err)
	}
	if n != 2 {
		t.Fatalf("loaded %d prompts, want 2", n)
	}

	pt, err := r.GetPrompt("flows.sample")
	if err != nil {
		t.Fatalf("GetPrompt: %v", err)
	}
	if pt.Category != "flows" {
		t.Errorf("category = %q, want flows", pt.Category)
	}
	if _, err := r.GetPrompt("custom.id"); err != nil {
		t.Errorf("explicit id not honoured: %v", err)
	}
	s, err := r.GetSchema("sample_schema")
	if err != nil {
		t.Fatalf("schema not loaded: %v", err)
	}
	if len(s.Required) != 1 || s.Required[0] != "answer" {
		t.Errorf("required = %v, want [answer]", s.Required)
	}
}

func TestLoadFromFS_BadSchema(t *testing.T) {
	fsys := fstest.MapFS{
		"prompts/flows/sample.json": {Data: []byte(`{"name":"Sample"}`)},
		"schemas/broken.json":       {Data: []byte(`{"required":`)},
	}
	if _, err := LoadFromFS(NewRegistry(), fsys); err == nil {
		t.Fatal("expected error for malformed schema")
	}
}

func TestLoadFromFS_MissingPromptsDir(t *testing.T) {
	if _, err := LoadFromFS(NewRegistry(), fstest.MapFS{}); err == nil {
		t.Fatal("expected error for missing prompts directory")
	}
}

func TestLoadDefaults(t *testing.T) {
	if _, err := LoadDefaults(); err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	for _, id := range []string{PromptIDs.DiagnosePlant, PromptIDs.MarketInsights, PromptIDs.SchemeInformation, PromptIDs.AssistantNavigation} {
		pt, err := Get().GetPrompt(id)
		if err != nil {
			t.Errorf("default prompt %s missing", id)
			continue
		}
		if pt.ResponseSchemaID == "" {
			continue
		}
		s, err := Get().GetSchema(pt.ResponseSchemaID)
		if err != nil {
			t.Errorf("prompt %s references missing schema %s", id, pt.ResponseSchemaID)
			continue
		}
		if len(s.Required) == 0 {
			t.Errorf("schema %s lists no required fields", s.ID)
		}
	}
}

func TestRenderUserPrompt_Defaults(t *testing.T) {
	r := NewRegistry()
	if _, err := LoadFromFS(r, mustDefaults(t)); err != nil {
		t.Fatal(err)
	}
	pt, _ := r.GetPrompt(PromptIDs.DiagnosePlant)

	out, err := RenderUserPrompt(pt, NewContext().Set("TextQuery", "yellow leaves"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "speaks Kannada") {
		t.Errorf("language default not applied:\n%s", out)
	}
	if !strings.Contains(out, "User Query: yellow leaves") {
		t.Errorf("query missing:\n%s", out)
	}
	if strings.Contains(out, "Photo:") {
		t.Errorf("photo line rendered without a photo:\n%s", out)
	}
}

func TestRenderUserPrompt_SchemeAge(t *testing.T) {
	r := NewRegistry()
	if _, err := LoadFromFS(r, mustDefaults(t)); err != nil {
		t.Fatal(err)
	}
	pt, _ := r.GetPrompt(PromptIDs.SchemeInformation)

	docs := []map[string]string{{"Title": "KCC", "Content": "credit"}}
	ctx := NewContext().
		Set("SchemeQuery", "loan").
		Set("Documents", docs).
		Set("State", "Karnataka").
		Set("District", "Mysuru").
		Set("Language", "English").
		Set("Age", 0)

	out, err := RenderUserPrompt(pt, ctx)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "age: Not Provided") {
		t.Errorf("missing age placeholder:\n%s", out)
	}
	if !strings.Contains(out, "Title: KCC") {
		t.Errorf("documents not rendered")
	}

	ctx.Set("Age", 42)
	out, _ = RenderUserPrompt(pt, ctx)
	if !strings.Contains(out, "Mysuru, Karnataka aged 42") {
		t.Errorf("age not rendered:\n%s", out)
	}
}

func TestRenderUserPrompt_MissingRequired(t *testing.T) {
	pt := &PromptTemplate{
		ID:             "t",
		UserPromptTmpl: "{{.A}}",
		Variables:      []PromptVariable{{Name: "A", Required: true}},
	}
	if _, err := RenderUserPrompt(pt, NewContext().Set("A", "")); err == nil {
		t.Fatal("expected error for empty required variable")
	}
}

func mustDefaults(t *testing.T) fstest.MapFS {
	t.Helper()
	out := fstest.MapFS{}
	for _, p := range []string{
		"prompts/flows/diagnose_plant.json",
		"prompts/flows/market_insights.json",
		"prompts/flows/scheme_information.json",
		"prompts/assistant/navigation.json",
	} {
		data, err := defaultTemplates.ReadFile("defaults/" + p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		out[p] = &fstest.MapFile{Data: data}
	}
	return out
}
