package wizard

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildPromptBlankFieldsUsePlaceholder(t *testing.T) {
	for _, step := range Steps() {
		prompt, err := BuildPrompt(step, Inputs{})
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", step, err)
		}
		for _, q := range Questions(step) {
			want := Placeholder(q.Guidance)
			if !strings.Contains(prompt, want) {
				t.Fatalf("step %d: prompt missing placeholder for %s\nwant substring %q", step, q.Field, want)
			}
		}
		if strings.Contains(prompt, ": \n") {
			t.Fatalf("step %d: prompt contains an empty value:\n%s", step, prompt)
		}
	}
}

func TestBuildPromptUsesAnswers(t *testing.T) {
	fields := Fields{}
	_ = fields.Set(FieldProduct, "  다이어트 도시락 ")
	_ = fields.Set(FieldPain, "살이 안 빠져서 우울하다")

	prompt, err := BuildPrompt(StepCustomer, Inputs{Fields: fields})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, "- Product: 다이어트 도시락\n") {
		t.Fatalf("product not trimmed or missing:\n%s", prompt)
	}
	if strings.Contains(prompt, "User Skipped") {
		t.Fatalf("answered fields must not be replaced:\n%s", prompt)
	}
}

func TestBuildPromptReadsOnlyDependencies(t *testing.T) {
	outputs := map[Step]string{
		StepCustomer:    "OUT-customer",
		StepCharacter:   "OUT-character",
		StepSynopsis:    "OUT-synopsis",
		StepDraft:       "OUT-draft",
		StepFinalScript: "OUT-final",
	}
	for _, step := range Steps() {
		prompt, err := BuildPrompt(step, Inputs{Outputs: outputs})
		if err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		deps := map[Step]bool{}
		for _, d := range Dependencies(step) {
			deps[d] = true
		}
		for _, other := range Steps() {
			has := strings.Contains(prompt, outputs[other])
			if has != deps[other] {
				t.Fatalf("step %d: contains output of step %d = %v, want %v", step, other, has, deps[other])
			}
		}
	}
}

func TestBuildPromptMissingPriorOutput(t *testing.T) {
	prompt, err := BuildPrompt(StepCharacter, Inputs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, "Not generated yet: the Step 1 (customer) result is unavailable") {
		t.Fatalf("missing prior output notice:\n%s", prompt)
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	in := Inputs{
		Fields:  Fields{FieldProduct: "블로그 강의", FieldNickname: "테크요정"},
		Outputs: map[Step]string{StepCustomer: "c", StepSynopsis: "s", StepDraft: "d"},
		Styles:  Styles{Persona: PersonaAnalyst, Strategy: StrategySoap},
	}
	a, _ := BuildPrompt(StepFinalScript, in)
	b, _ := BuildPrompt(StepFinalScript, in)
	if a != b {
		t.Fatalf("prompts differ for equal inputs")
	}
}

func TestBuildPromptStrategy(t *testing.T) {
	soap, _ := BuildPrompt(StepSynopsis, Inputs{Styles: Styles{Persona: PersonaFriendly, Strategy: StrategySoap}})
	if !strings.Contains(soap, "[Strategy: Sequential Soap Opera (The Slide)]") {
		t.Fatalf("soap strategy block missing")
	}
	std, _ := BuildPrompt(StepSynopsis, Inputs{Styles: DefaultStyles()})
	if !strings.Contains(std, "[Strategy: Standard 4-part Synopsis]") {
		t.Fatalf("standard strategy block missing")
	}
	if strings.Contains(std, "The Slide") {
		t.Fatalf("standard prompt must not contain the soap block")
	}
}

func TestBuildPromptPersonaTone(t *testing.T) {
	prompt, _ := BuildPrompt(StepCharacter, Inputs{Styles: Styles{Persona: PersonaMotivator, Strategy: StrategyStandard}})
	if !strings.Contains(prompt, "- Style: 옵션 C: 열정적인 동기부여가 (에너지와 확신)") {
		t.Fatalf("persona label missing:\n%s", prompt)
	}
}

func TestBuildPromptFinalScript(t *testing.T) {
	in := Inputs{
		Fields: Fields{FieldProduct: "블로그 강의"},
		Documents: Documents{
			Persona:      "PERSONA-DOC",
			WritingRules: "RULES-DOC",
		},
	}
	prompt, err := BuildPrompt(StepFinalScript, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := strings.Count(prompt, imageMarker+":"); got != 4 {
		t.Fatalf("marker count = %d, want 4", got)
	}
	if !strings.Contains(prompt, "Mention '블로그 강의' naturally 5+ times") {
		t.Fatalf("seo instruction missing")
	}
	if !strings.Contains(prompt, "Korean for the blog post. **English** for the Image Prompts.") {
		t.Fatalf("language split instruction missing")
	}

	notice := strings.Index(prompt, "# External Inputs")
	persona := strings.Index(prompt, "PERSONA-DOC")
	rules := strings.Index(prompt, "RULES-DOC")
	identity := strings.Index(prompt, "# Identity (Persona):")
	if notice < 0 || persona < notice || rules < persona || identity < rules {
		t.Fatalf("external documents must precede default instructions (notice=%d persona=%d rules=%d identity=%d)",
			notice, persona, rules, identity)
	}
}

func TestBuildPromptFinalScriptWithoutDocuments(t *testing.T) {
	prompt, _ := BuildPrompt(StepFinalScript, Inputs{})
	if strings.Contains(prompt, "# External Inputs") {
		t.Fatalf("external notice must be absent without documents")
	}
	if !strings.Contains(prompt, "- Product/Topic: "+Placeholder("판매할 상품을 상상해서 제안해주세요")) {
		t.Fatalf("blank product must use placeholder")
	}
}

func TestBuildPromptUnknownStep(t *testing.T) {
	if _, err := BuildPrompt(Step(9), Inputs{}); !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("expected ErrUnknownStep, got %v", err)
	}
}

func TestPosterPrompt(t *testing.T) {
	got := PosterPrompt(Fields{FieldProduct: "다이어트 도시락"})
	if !strings.HasPrefix(got, "A dramatic Netflix movie poster for a series titled '다이어트 도시락'.") {
		t.Fatalf("unexpected poster prompt: %q", got)
	}
}

func TestFieldsSet(t *testing.T) {
	f := Fields{}
	if err := f.Set(FieldPain, "  x  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Get(FieldPain) != "x" {
		t.Fatalf("value not trimmed: %q", f.Get(FieldPain))
	}
	if err := f.Set(FieldPain, "   "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f[FieldPain]; ok {
		t.Fatalf("blank value should clear the field")
	}
	if err := f.Set(Field("nope"), "x"); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
	if got := f.Value(FieldPain, "guide"); got != Placeholder("guide") {
		t.Fatalf("Value on blank = %q", got)
	}
}

func TestParseStep(t *testing.T) {
	cases := map[string]Step{
		"1":            StepCustomer,
		"step3":        StepSynopsis,
		"final_script": StepFinalScript,
		" Draft ":      StepDraft,
	}
	for in, want := range cases {
		got, err := ParseStep(in)
		if err != nil || got != want {
			t.Fatalf("ParseStep(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseStep("6"); !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("expected ErrUnknownStep, got %v", err)
	}
}

func TestStylesValidate(t *testing.T) {
	if err := DefaultStyles().Validate(); err != nil {
		t.Fatalf("default styles invalid: %v", err)
	}
	if err := (Styles{Persona: "pirate", Strategy: StrategySoap}).Validate(); !errors.Is(err, ErrInvalidStyle) {
		t.Fatalf("expected ErrInvalidStyle, got %v", err)
	}
	if len(Personas()) != 3 || len(Strategies()) != 2 {
		t.Fatalf("unexpected option counts")
	}
}
