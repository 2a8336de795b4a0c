package utils

import (
	"errors"
	"testing"
)

type diagnosisOut struct {
	Diagnosis string `json:"diagnosis"`
	Notes     string `json:"notes,omitempty"`
}

func TestSmartParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain json", `{"diagnosis":"leaf blight"}`, "leaf blight"},
		{"code fence", "```json\n{\"diagnosis\":\"rust\"}\n```", "rust"},
		{"trailing comma", `{"diagnosis":"aphids",}`, "aphids"},
		{"single quotes", `{'diagnosis': 'mildew'}`, "mildew"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out diagnosisOut
			if _, err := SmartParse(tt.input, &out); err != nil {
				t.Fatalf("SmartParse(%q) error: %v", tt.input, err)
			}
			if out.Diagnosis != tt.want {
				t.Errorf("diagnosis = %q, want %q", out.Diagnosis, tt.want)
			}
		})
	}
}

func TestSmartParse_Garbage(t *testing.T) {
	var out []int
	if _, err := SmartParse("the model refused", &out); !errors.Is(err, ErrParseFailed) {
		t.Fatalf("expected ErrParseFailed, got %v", err)
	}
}

func TestRequireFields(t *testing.T) {
	tests := []struct {
		name    string
		out     diagnosisOut
		fields  []string
		wantErr bool
	}{
		{"tags: present", diagnosisOut{Diagnosis: "ok"}, nil, false},
		{"tags: missing", diagnosisOut{Notes: "only notes"}, nil, true},
		{"tags: blank", diagnosisOut{Diagnosis: "  \n"}, nil, true},
		{"named: optional field required", diagnosisOut{Diagnosis: "ok"}, []string{"notes"}, true},
		{"named: only listed fields checked", diagnosisOut{Notes: "n"}, []string{"notes"}, false},
		{"named: unknown field", diagnosisOut{Diagnosis: "ok"}, []string{"summary"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.out
			err := RequireFields(&out, tt.fields...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RequireFields() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseHJSONToStruct(t *testing.T) {
	var out struct {
		Items []string `json:"items"`
	}
	src := []byte("# comment\n{\n  items: [\n    a\n    b\n  ]\n}")
	if err := ParseHJSONToStruct(src, &out); err != nil {
		t.Fatalf("ParseHJSONToStruct: %v", err)
	}
	if len(out.Items) != 2 || out.Items[1] != "b" {
		t.Errorf("items = %v", out.Items)
	}
}
