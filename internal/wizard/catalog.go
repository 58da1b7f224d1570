package wizard

import (
	"fmt"
	"strconv"
	"strings"
)

type Step int

const (
	StepCustomer Step = iota + 1
	StepCharacter
	StepSynopsis
	StepDraft
	StepFinalScript
)

type stepInfo struct {
	Key      string
	Title    string
	Subtitle string
	Output   string
}

var steps = map[Step]stepInfo{
	StepCustomer: {
		Key:      "customer",
		Title:    "1단계: 꿈의 고객 찾기",
		Subtitle: "내가 도와줄 '단 한 사람'은 누구일까요?",
		Output:   "AI가 분석한 '꿈의 고객 프로필'",
	},
	StepCharacter: {
		Key:      "character",
		Title:    "2단계: 매력적인 캐릭터",
		Subtitle: "사람들이 나를 왜 좋아할까요? 나의 '역할'을 정해봅시다.",
		Output:   "AI가 만든 '캐릭터 프로필'",
	},
	StepSynopsis: {
		Key:      "synopsis",
		Title:    "3단계: 4부작 드라마",
		Subtitle: "고객과 내가 만나는 이야기를 넷플릭스 드라마처럼 짜봅시다.",
		Output:   "[드라마 작가] 4부작 시리즈 기획안",
	},
	StepDraft: {
		Key:      "draft",
		Title:    "4단계: 스토리 연금술",
		Subtitle: "장면 하나하나에 생생한 숨결을 불어넣습니다.",
		Output:   "작성된 초안",
	},
	StepFinalScript: {
		Key:      "final_script",
		Title:    "5단계: 마케팅 캡틴 (최종)",
		Subtitle: "모든 조각을 모아, 고객의 마음을 훔치는 편지를 완성합니다.",
		Output:   "[최종] 블로그 글 & 섹션별 이미지",
	},
}

func Steps() []Step {
	return []Step{StepCustomer, StepCharacter, StepSynopsis, StepDraft, StepFinalScript}
}

func (s Step) Valid() bool {
	_, ok := steps[s]
	return ok
}

// Key is the StepOutput name: customer, character, synopsis, draft or
// final_script.
func (s Step) Key() string {
	return steps[s].Key
}

func (s Step) String() string {
	if !s.Valid() {
		return "step(" + strconv.Itoa(int(s)) + ")"
	}
	return s.Key()
}

func (s Step) Title() string    { return steps[s].Title }
func (s Step) Subtitle() string { return steps[s].Subtitle }

// Slot is the display surface that holds the step's generated text.
func (s Step) Slot() Slot {
	return Slot(s.Key())
}

// ParseStep accepts "1".."5", "step3" or an output key such as "synopsis".
func ParseStep(raw string) (Step, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.TrimPrefix(v, "step")
	if n, err := strconv.Atoi(v); err == nil {
		if st := Step(n); st.Valid() {
			return st, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownStep, raw)
	}
	for st, info := range steps {
		if info.Key == v {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStep, raw)
}

type Slot string

const (
	SlotPoster   Slot = "poster"
	SlotSection1 Slot = "section1"
	SlotSection2 Slot = "section2"
	SlotSection3 Slot = "section3"
	SlotSection4 Slot = "section4"
)

// Slots lists every display surface in display order.
func Slots() []Slot {
	out := make([]Slot, 0, len(steps)+5)
	for _, st := range Steps() {
		out = append(out, st.Slot())
	}
	out = append(out, SlotPoster)
	out = append(out, SectionSlots()...)
	return out
}

func SectionSlots() []Slot {
	return []Slot{SlotSection1, SlotSection2, SlotSection3, SlotSection4}
}

func ParseSlot(raw string) (Slot, error) {
	v := Slot(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range Slots() {
		if s == v {
			return s, nil
		}
	}
	if st, err := ParseStep(string(v)); err == nil {
		return st.Slot(), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSlot, raw)
}

// Title is a short human label for the surface.
func (s Slot) Title() string {
	switch s {
	case SlotPoster:
		return "[Nano Banana] 시리즈 공식 포스터 (Netflix Style)"
	case SlotSection1, SlotSection2, SlotSection3, SlotSection4:
		return initialSurface(s)
	}
	for _, st := range Steps() {
		if st.Slot() == s {
			return steps[st].Output
		}
	}
	return string(s)
}

func initialSurface(s Slot) string {
	switch s {
	case SlotPoster:
		return "(프롬프트가 여기에 출력됩니다)"
	case SlotSection1:
		return "[1. Intro] 프롬프트"
	case SlotSection2:
		return "[2. Wall] 프롬프트"
	case SlotSection3:
		return "[3. Epiphany] 프롬프트"
	case SlotSection4:
		return "[4. Offer] 프롬프트"
	default:
		return ""
	}
}

type NamedOption struct {
	Key  string
	Name string
}

const (
	PersonaFriendly  = "friendly"
	PersonaAnalyst   = "analyst"
	PersonaMotivator = "motivator"

	StrategyStandard = "Standard"
	StrategySoap     = "Soap"
)

var personas = []NamedOption{
	{Key: PersonaFriendly, Name: "옵션 A: 친절한 옆집 언니 (부드러운 공감)"},
	{Key: PersonaAnalyst, Name: "옵션 B: 냉철한 데이터 분석가 (팩트와 숫자)"},
	{Key: PersonaMotivator, Name: "옵션 C: 열정적인 동기부여가 (에너지와 확신)"},
}

var strategies = []NamedOption{
	{Key: StrategyStandard, Name: "기존 4부작 시놉시스 (전형적인 기승전결)"},
	{Key: StrategySoap, Name: "연속적 솝 오페라 (미끄럼틀 설계: 매회 새로운 문제 발견)"},
}

func Personas() []NamedOption {
	return append([]NamedOption(nil), personas...)
}

func Strategies() []NamedOption {
	return append([]NamedOption(nil), strategies...)
}

// Styles is the pair of style selections reused by later steps.
type Styles struct {
	Persona  string `json:"persona"`
	Strategy string `json:"strategy"`
}

func DefaultStyles() Styles {
	return Styles{Persona: PersonaFriendly, Strategy: StrategyStandard}
}

func (s Styles) Validate() error {
	if _, ok := lookupOption(personas, s.Persona); !ok {
		return fmt.Errorf("%w: persona %q", ErrInvalidStyle, s.Persona)
	}
	if _, ok := lookupOption(strategies, s.Strategy); !ok {
		return fmt.Errorf("%w: strategy %q", ErrInvalidStyle, s.Strategy)
	}
	return nil
}

// PersonaName is the label embedded in prompts.
func (s Styles) PersonaName() string {
	if opt, ok := lookupOption(personas, s.Persona); ok {
		return opt.Name
	}
	return personas[0].Name
}

func (s Styles) StrategyKey() string {
	if opt, ok := lookupOption(strategies, s.Strategy); ok {
		return opt.Key
	}
	return StrategyStandard
}

func lookupOption(opts []NamedOption, key string) (NamedOption, bool) {
	for _, o := range opts {
		if strings.EqualFold(o.Key, strings.TrimSpace(key)) {
			return o, true
		}
	}
	return NamedOption{}, false
}
