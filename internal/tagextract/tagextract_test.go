package tagextract

import "testing"

func TestExtractRejectsUnsupportedExtension(t *testing.T) {
	if _, err := Extract([]byte("#TITLE:x;"), "txt"); err != ErrUnsupportedFormat {
		t.Fatalf("got %v, want ErrUnsupportedFormat", err)
	}
}

func TestExtractSMSingleChart(t *testing.T) {
	data := []byte("#TITLE:My Song;\n#BPMS:0=120;\n" +
		"#NOTES:\n     dance-single:\n     :\n     Hard:\n     8:\n     0,0,0,0,0,0,0,0,0,0,0,0:\n1000\n0000\n0000\n0000\n;\n")

	out, err := Extract(data, "sm")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if string(out.Title) != "My Song" {
		t.Errorf("Title = %q, want %q", out.Title, "My Song")
	}
	if string(out.BPMs) != "0=120" {
		t.Errorf("BPMs = %q, want %q", out.BPMs, "0=120")
	}
	if len(out.Charts) != 1 {
		t.Fatalf("got %d charts, want 1", len(out.Charts))
	}

	chart := out.Charts[0]
	if string(chart.StepType) != "dance-single" {
		t.Errorf("StepType = %q, want dance-single", chart.StepType)
	}
	if string(chart.Difficulty) != "Hard" {
		t.Errorf("Difficulty = %q, want Hard", chart.Difficulty)
	}
}

func TestExtractSMMultipleCharts(t *testing.T) {
	notes := "#NOTES:\n     dance-single:\n     :\n     Easy:\n     1:\n     0:\n1000\n;\n"
	data := []byte("#TITLE:Two Charts;\n" + notes + notes)

	out, err := Extract(data, "sm")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(out.Charts) != 2 {
		t.Fatalf("got %d charts, want 2", len(out.Charts))
	}
}

func TestExtractEscapedSemicolon(t *testing.T) {
	data := []byte(`#TITLE:foo\;bar;`)

	out, err := Extract(data, "ssc")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(out.Title) != `foo\;bar` {
		t.Errorf("Title = %q, want %q", out.Title, `foo\;bar`)
	}
}

func TestExtractSSCNoteDataScopesPerChartTags(t *testing.T) {
	data := []byte("#VERSION:0.83;\n#BPMS:0=120;\n" +
		"#NOTEDATA:;\n#STEPSTYPE:dance-single;\n#DIFFICULTY:Challenge;\n#METER:12;\n#CREDIT:someone;\n#BPMS:0=150;\n#NOTES:\n1000\n;\n" +
		"#NOTEDATA:;\n#STEPSTYPE:dance-double;\n#DIFFICULTY:Edit;\n#METER:9;\n#NOTES:\n10000000\n;\n")

	out, err := Extract(data, "ssc")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(out.BPMs) != "0=120" {
		t.Errorf("global BPMs = %q, want 0=120", out.BPMs)
	}
	if len(out.Charts) != 2 {
		t.Fatalf("got %d charts, want 2", len(out.Charts))
	}

	first := out.Charts[0]
	if string(first.StepType) != "dance-single" || string(first.Difficulty) != "Challenge" {
		t.Errorf("first chart mismatch: %+v", first)
	}
	if string(first.BPMs) != "0=150" {
		t.Errorf("first chart per-chart BPMs = %q, want 0=150", first.BPMs)
	}

	second := out.Charts[1]
	if string(second.StepType) != "dance-double" {
		t.Errorf("second chart StepType = %q, want dance-double", second.StepType)
	}
	if second.BPMs != nil {
		t.Errorf("second chart BPMs = %q, want nil (no per-chart override)", second.BPMs)
	}
}
