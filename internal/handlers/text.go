package handlers

import (
	"fmt"
	"strings"

	"marketing-captain/internal/wizard"
)

const introText = `🧭 마케팅 캡틴에 오신 것을 환영합니다!

5단계 질문에 답하면 AI가 고객 분석부터 최종 대본까지 차례로 만들어 드립니다.

1. /step1 고객 분석
2. /step2 캐릭터
3. /step3 시놉시스
4. /step4 초안
5. /step5 최종 대본

시작하기 전에 /settings 로 API 키를 저장해주세요.`

const helpText = `명령어 안내

/step1 ~ /step5 : 해당 단계 질문 시작
/skip : 현재 질문 건너뛰기
/run [단계] : 단계 실행 (예: /run 3)
/persona, /rules : 페르소나/작성 규칙 파일 불러오기 (clear 로 비우기)
/settings [제공자] [API 키] : API 설정
/show <항목> : 결과 다시 보기
/save <항목> : 결과를 .md 파일로 받기
/status : 진행 상황

항목: ` + "customer, character, synopsis, draft, final_script, poster, section1~section4"

const slotUsage = "항목을 지정해주세요. 예: /save final_script (customer, character, synopsis, draft, final_script, poster, section1~section4)"

func questionText(q wizard.Question) string {
	var b strings.Builder
	b.WriteString(q.Label)
	if q.Example != "" {
		b.WriteString("\n")
		b.WriteString(q.Example)
	}
	if !q.Required {
		b.WriteString("\n\n(건너뛰려면 /skip)")
	}
	return b.String()
}

func statusText(snap wizard.Snapshot, provider string, configured bool) string {
	var b strings.Builder
	b.WriteString("📋 진행 상황\n\n")
	for _, step := range wizard.Steps() {
		st := snap.Step(step)
		fmt.Fprintf(&b, "%s %s\n", stateIcon(st.State), step.Title())
	}

	fmt.Fprintf(&b, "\n🎭 캐릭터: %s\n", snap.Styles.PersonaName())
	fmt.Fprintf(&b, "🎬 전략: %s\n", snap.Styles.StrategyKey())
	fmt.Fprintf(&b, "📄 페르소나 파일: %s\n", loadedMark(snap.Documents[wizard.DocumentPersona]))
	fmt.Fprintf(&b, "📄 작성 규칙 파일: %s\n", loadedMark(snap.Documents[wizard.DocumentWritingRules]))

	key := "❌ 키 없음"
	if configured {
		key = "✅"
	}
	fmt.Fprintf(&b, "\n⚙️ %s %s", providerLabel(provider), key)
	return b.String()
}

func stateIcon(s wizard.State) string {
	switch s {
	case wizard.StateBuilding, wizard.StatePending:
		return "⏳"
	case wizard.StateCompleted:
		return "✅"
	case wizard.StateFailed:
		return "❌"
	default:
		return "▫️"
	}
}

func loadedMark(ok bool) string {
	if ok {
		return "불러옴"
	}
	return "없음"
}

func documentLabel(kind wizard.DocumentKind) string {
	if kind == wizard.DocumentWritingRules {
		return "작성 규칙"
	}
	return "페르소나"
}

func slotArg(args string) (wizard.Slot, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", wizard.ErrUnknownSlot
	}
	return wizard.ParseSlot(fields[0])
}
