package wizard

import (
	"fmt"
	"strings"
)

type Field string

const (
	FieldProduct   Field = "product"
	FieldPain      Field = "pain"
	FieldRole      Field = "role"
	FieldFlaw      Field = "flaw"
	FieldBackstory Field = "backstory"
	FieldSecret    Field = "secret"
	FieldWall      Field = "wall"
	FieldEpiphany  Field = "epiphany"
	FieldCTA       Field = "cta"
	FieldEpisode   Field = "episode"
	FieldScene     Field = "scene"
	FieldInner     Field = "inner"
	FieldNickname  Field = "nickname"
	FieldFacts     Field = "facts"
)

// Question is one prompt shown to the user. Guidance is the text placed in
// the skipped-field placeholder.
type Question struct {
	Field    Field
	Step     Step
	Label    string
	Example  string
	Guidance string
	Required bool
}

var questions = []Question{
	{
		Field:    FieldProduct,
		Step:     StepCustomer,
		Label:    "Q1. 누구를 도와주고 싶나요? (상품/서비스) *필수",
		Example:  "예: '블로그 강의', '다이어트 도시락'... (이 항목은 꼭 적어주세요!)",
		Guidance: "판매할 상품을 상상해서 제안해주세요",
		Required: true,
	},
	{
		Field:    FieldPain,
		Step:     StepCustomer,
		Label:    "Q2. 그 사람의 가장 큰 고민은 무엇인가요?",
		Example:  "예: '살이 안 빠져서 우울하다', '월급이 적어서 힘들다'...",
		Guidance: "이 상품을 필요로 하는 사람의 고통을 상상해주세요",
	},
	{
		Field:    FieldRole,
		Step:     StepCharacter,
		Label:    "Q1. 나는 어떤 역할인가요? (하고 싶은 역할)",
		Example:  "예: '정글을 헤쳐나가는 모험가', '이미 성공한 리더', '같이 배우는 친구'...",
		Guidance: "고객에게 신뢰를 줄 수 있는 역할을 추천해주세요",
	},
	{
		Field:    FieldFlaw,
		Step:     StepCharacter,
		Label:    "Q2. 솔직히 고백할 나만의 약점이나 실수는?",
		Example:  "예: '기계치라서 컴퓨터를 못한다', '다이어트에 10번 실패했었다'...",
		Guidance: "인간미가 느껴지는 작은 결점을 만들어주세요",
	},
	{
		Field:    FieldBackstory,
		Step:     StepCharacter,
		Label:    "Q3. 과거의 흑역사나 힘들었던 옛날 이야기 (Backstory)",
		Example:  "예: '카드값이 연체되어 독촉 전화를 받았던 날'... (짧게 써주셔도 돼요)",
		Guidance: "공감을 얻을 수 있는 실패 경험담을 만들어주세요",
	},
	{
		Field:    FieldSecret,
		Step:     StepSynopsis,
		Label:    "Q1. 독자들이 모르는 '새로운 기회(비밀)'는 무엇인가요?",
		Example:  "예: '사실 블로그는 글솜씨가 아니라 시스템입니다', '다이어트의 핵심은 칼로리가 아니었습니다'...",
		Guidance: "사람들이 아직 모르는 특별한 기회나 비밀을 상상해주세요",
	},
	{
		Field:    FieldWall,
		Step:     StepSynopsis,
		Label:    "Q2. 과거에 겪었던 가장 처절했던 실패담(벽)은?",
		Example:  "예: '통장 잔고 0원일 때 기저귀 값을 걱정하며 울었습니다', '100번 넘게 거절당했습니다'...",
		Guidance: "가장 좌절했던 순간의 구체적인 감정을 묘사해주세요",
	},
	{
		Field:    FieldEpiphany,
		Step:     StepSynopsis,
		Label:    "Q3. 그 문제를 해결해 준 '단 하나의 열쇠(유레카)'는?",
		Example:  "예: 'OOO 기법을 발견했습니다', '생각의 틀을 바꿨더니 모든 게 풀렸습니다'...",
		Guidance: "모든 상황을 반전시킨 결정적 깨달음을 상상해주세요",
	},
	{
		Field:    FieldCTA,
		Step:     StepSynopsis,
		Label:    "Q4. 해결 후 변화된 삶과 독자에게 줄 선물(CTA)은?",
		Example:  "예: '이제 월 1000만원을 벌게 되었습니다. 여러분께 무료 전자책을 드립니다'...",
		Guidance: "삶의 변화와 독자에게 줄 가치 있는 제안을 만들어주세요",
	},
	{
		Field:    FieldEpisode,
		Step:     StepDraft,
		Label:    "Q1. 몇 화를 글로 쓰고 싶나요?",
		Example:  "예: '제1화', '전체 요약'...",
		Guidance: "제1화를 작성해주세요",
	},
	{
		Field:    FieldScene,
		Step:     StepDraft,
		Label:    "Q2. [장면] 그때 주변 소리, 냄새, 날씨는 어땠나요?",
		Example:  "예: '장마철이라 눅눅한 냄새가 났다', '시계 초침 소리만 들렸다'...",
		Guidance: "비참하거나 극적인 현장 분위기를 묘사해주세요",
	},
	{
		Field:    FieldInner,
		Step:     StepDraft,
		Label:    "Q3. [속마음] 그때 혼자 속으로 무슨 생각을 했나요?",
		Example:  "예: '아, 여기서 끝이구나', '도망가고 싶다'...",
		Guidance: "절망적이거나 간절한 속마음을 묘사해주세요",
	},
	{
		Field:    FieldNickname,
		Step:     StepFinalScript,
		Label:    "★ 블로그 닉네임 (필수)",
		Example:  "이 글을 쓰는 사람의 이름은? (예: 육아대장, 테크요정)",
		Guidance: "신뢰감 있는 마케팅 전문가 닉네임",
	},
	{
		Field:    FieldFacts,
		Step:     StepFinalScript,
		Label:    "★ 검색으로 얻은 팩트/뉴스/통계 (있으면 좋음)",
		Example:  "예: '2025년 통계청 자료에 따르면...', '요즘 인스타에서 유행하는...'",
		Guidance: "관련된 최신 통계나 트렌드를 하나 가상으로 인용해주세요",
	},
}

// Questions returns the step's questions in the order they are asked.
func Questions(step Step) []Question {
	var out []Question
	for _, q := range questions {
		if q.Step == step {
			out = append(out, q)
		}
	}
	return out
}

func QuestionFor(f Field) (Question, bool) {
	for _, q := range questions {
		if q.Field == f {
			return q, true
		}
	}
	return Question{}, false
}

func ParseField(raw string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := QuestionFor(f); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidField, raw)
	}
	return f, nil
}

// Placeholder is substituted for every blank field so a prompt never
// carries an empty value.
func Placeholder(guidance string) string {
	return "(User Skipped: AI MUST invent a creative, specific detail for this based on context. " + guidance + ")"
}

// Fields holds the trimmed answers keyed by field name.
type Fields map[Field]string

func (f Fields) Set(name Field, value string) error {
	if _, ok := QuestionFor(name); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		delete(f, name)
		return nil
	}
	f[name] = value
	return nil
}

func (f Fields) Get(name Field) string {
	return f[name]
}

// Value returns the answer, or the placeholder carrying guidance when blank.
func (f Fields) Value(name Field, guidance string) string {
	if v := strings.TrimSpace(f[name]); v != "" {
		return v
	}
	return Placeholder(guidance)
}

func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// answer reads a field with its catalog guidance.
func (f Fields) answer(name Field) string {
	q, _ := QuestionFor(name)
	return f.Value(name, q.Guidance)
}
