package wizard

import (
	"fmt"
	"strings"
)

// Documents are the optional external persona and writing-rules texts.
type Documents struct {
	Persona      string
	WritingRules string
}

func (d Documents) Empty() bool {
	return strings.TrimSpace(d.Persona) == "" && strings.TrimSpace(d.WritingRules) == ""
}

// Inputs is a value snapshot of everything a prompt may read.
type Inputs struct {
	Fields    Fields
	Outputs   map[Step]string
	Styles    Styles
	Documents Documents
}

// dependencies lists which earlier StepOutputs each step may read.
var dependencies = map[Step][]Step{
	StepCustomer:    nil,
	StepCharacter:   {StepCustomer},
	StepSynopsis:    {StepCustomer, StepCharacter},
	StepDraft:       {StepCharacter, StepSynopsis},
	StepFinalScript: {StepCustomer, StepSynopsis, StepDraft},
}

// Dependencies returns the steps whose output feeds step's prompt.
func Dependencies(step Step) []Step {
	return append([]Step(nil), dependencies[step]...)
}

// BuildPrompt renders the full instruction document for step. It performs
// no I/O and is deterministic for equal inputs.
func BuildPrompt(step Step, in Inputs) (string, error) {
	if in.Fields == nil {
		in.Fields = Fields{}
	}
	switch step {
	case StepCustomer:
		return buildCustomer(in), nil
	case StepCharacter:
		return buildCharacter(in), nil
	case StepSynopsis:
		return buildSynopsis(in), nil
	case StepDraft:
		return buildDraft(in), nil
	case StepFinalScript:
		return buildFinalScript(in), nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownStep, int(step))
	}
}

// PosterPrompt is the fixed description rewritten after step 3 completes.
func PosterPrompt(fields Fields) string {
	product := fields.answer(FieldProduct)
	return fmt.Sprintf("A dramatic Netflix movie poster for a series titled '%s'. Cinematic lighting, high quality 8k, emotional atmosphere, professional design, text-free. (Important: The image MUST NOT contain any text or letters.)", product)
}

// prior never returns an empty string: an output that was not produced yet
// is replaced by a notice the model can reason about.
func (in Inputs) prior(step Step) string {
	if v := strings.TrimSpace(in.Outputs[step]); v != "" {
		return v
	}
	return fmt.Sprintf("(Not generated yet: the Step %d (%s) result is unavailable. Infer it from the other context.)", int(step), step.Key())
}

func buildCustomer(in Inputs) string {
	var b strings.Builder
	b.WriteString("# Goal: Step 1. Define Dream Customer\n")
	b.WriteString("# Input Data:\n")
	fmt.Fprintf(&b, "- Product: %s\n", in.Fields.answer(FieldProduct))
	fmt.Fprintf(&b, "- Pain: %s\n", in.Fields.answer(FieldPain))
	b.WriteString("# Task:\n")
	b.WriteString("1. Identify the most desperate target audience.\n")
	b.WriteString("2. Define their Persona (Age, Job, Situation, Deepest Desire).\n")
	b.WriteString("3. Write in Korean, friendly and clear.\n\n")
	b.WriteString("**Output strictly in Markdown.**\n")
	writeStructure(&b, "Target Audience", "Demographics", "Psychographics (Desire/Pain)")
	return b.String()
}

func buildCharacter(in Inputs) string {
	persona := in.Styles.PersonaName()

	var b strings.Builder
	b.WriteString("# Goal: Step 2. Define Attractive Character\n")
	b.WriteString("# Context (Target Audience):\n")
	b.WriteString(in.prior(StepCustomer) + "\n\n")
	b.WriteString("# Identity Style (Strictly Follow This):\n")
	fmt.Fprintf(&b, "- Style: %s\n\n", persona)
	b.WriteString("# Input Data:\n")
	fmt.Fprintf(&b, "- Role: %s\n", in.Fields.answer(FieldRole))
	fmt.Fprintf(&b, "- Flaw: %s\n", in.Fields.answer(FieldFlaw))
	fmt.Fprintf(&b, "- Backstory: %s\n", in.Fields.answer(FieldBackstory))
	b.WriteString("# Task:\n")
	b.WriteString("1. Create a character profile that is the PERFECT GUIDE for the Target Audience above.\n")
	fmt.Fprintf(&b, "2. Body tone and voice must perfectly match the chosen Style: '%s'.\n", persona)
	b.WriteString("3. Format clearly. Language: Korean.\n\n")
	b.WriteString("**Output strictly in Markdown.**\n")
	writeStructure(&b, "Name/Title", "Style/Vibe", "Role (Identity)", "Flaw (Vulnerability)", "Backstory")
	return b.String()
}

func strategyInstruction(strategy string) string {
	if strategy == StrategySoap {
		return strings.Join([]string{
			"[Strategy: Sequential Soap Opera (The Slide)]",
			"- Each episode must follow Russell Brunson's Slide strategy.",
			"- Ep 1 leads to Problem A, solved by epiphany, but discovers New Problem B.",
			"- Ep 2 solves Problem B, but discovers New Problem C.",
			"- Ep 3 solves Problem C, leading to the grand vision.",
			"- Ep 4 presents the Final Offer as the ultimate solution for everything.",
			"- High tension and constant 'What's next?' hooks.",
		}, "\n")
	}
	return strings.Join([]string{
		"[Strategy: Standard 4-part Synopsis]",
		"- Classic narrative arc: Hook -> Struggle -> Epiphany -> Result.",
		"- Focus on a single coherent story divided into 4 parts.",
	}, "\n")
}

func buildSynopsis(in Inputs) string {
	strategy := in.Styles.StrategyKey()

	var b strings.Builder
	b.WriteString("# Role: Series Planning Lead Author (Soap Opera Specialist)\n")
	b.WriteString("# Goal: Plan a 4-part Blog Series using Russell Brunson's Sequence & 2026 Naver SEO logic.\n\n")
	b.WriteString("# Context Data:\n")
	fmt.Fprintf(&b, "- Hero (Character): %s\n", in.prior(StepCharacter))
	fmt.Fprintf(&b, "- Audience (Dream Customer): %s\n\n", in.prior(StepCustomer))
	b.WriteString("# Strategy Choice:\n")
	b.WriteString(strategyInstruction(strategy) + "\n\n")
	b.WriteString("# Input Data:\n")
	fmt.Fprintf(&b, "1. Secret/Opportunity: %s\n", in.Fields.answer(FieldSecret))
	fmt.Fprintf(&b, "2. The Wall (Failure): %s\n", in.Fields.answer(FieldWall))
	fmt.Fprintf(&b, "3. The Epiphany (Solution): %s\n", in.Fields.answer(FieldEpiphany))
	fmt.Fprintf(&b, "4. Transformation/CTA: %s\n\n", in.Fields.answer(FieldCTA))
	b.WriteString("# [Strategy Guidelines - 2026 Naver SEO]\n")
	b.WriteString("1. **Avoid AI Summary**: Focus on unique human 'Experience' and emotional narrative.\n")
	b.WriteString("2. **Home Feed Strategy**: Use curiosity-driven titles and strong hooks.\n")
	b.WriteString("3. **Maximize Dwell Time**: Use 'Open Loops' at the end of each episode to encourage reading the next one.\n\n")
	b.WriteString("# [Task]\n")
	fmt.Fprintf(&b, "Create a 4-part synopsis based on the '%s' strategy.\n\n", strategy)
	b.WriteString("# [Output Format]\n")
	b.WriteString("Create a **[4-part Series Planning Table]** in Markdown:\n")
	b.WriteString("- [Episode #]\n")
	b.WriteString("- [Naver Home Feed Title] (Keyword + Clickable Copy)\n")
	b.WriteString("- [Core Content] (Experience-focused summary)\n")
	b.WriteString("- [Open Loop] (Ending sentence to hook into next episode)\n\n")
	b.WriteString("Language: Korean.\n")
	return b.String()
}

func buildDraft(in Inputs) string {
	var b strings.Builder
	b.WriteString("# Goal: Step 4. Write Content Draft (Story Alchemist)\n")
	fmt.Fprintf(&b, "# Target Episode: %s\n", in.Fields.answer(FieldEpisode))
	b.WriteString("# Deep Details:\n")
	fmt.Fprintf(&b, "- Scene Sensory: %s\n", in.Fields.answer(FieldScene))
	fmt.Fprintf(&b, "- Inner Voice: %s\n", in.Fields.answer(FieldInner))
	b.WriteString("# Context:\n")
	fmt.Fprintf(&b, "- Synopsis: %s\n", in.prior(StepSynopsis))
	fmt.Fprintf(&b, "- Character: %s\n", in.prior(StepCharacter))
	b.WriteString("# Task:\n")
	b.WriteString("Write a high-immersion blog post draft.\n")
	b.WriteString("**Output strictly in Markdown.**\n\n")
	b.WriteString("Structure:\n")
	b.WriteString("- **Scene Setting**: (Sensory details)\n")
	b.WriteString("- **Inner Monologue**: (Character's thoughts)\n")
	b.WriteString("- **Dialogue**: (Conversation)\n")
	b.WriteString("- **Action**: (What happens)\n")
	return b.String()
}

func buildFinalScript(in Inputs) string {
	product := in.Fields.answer(FieldProduct)
	nickname := in.Fields.answer(FieldNickname)
	facts := in.Fields.answer(FieldFacts)
	persona := in.Styles.PersonaName()

	var b strings.Builder
	b.WriteString("# Role: Marketing Captain (Storytelling & Visual Director)\n")
	b.WriteString("# Goal: Write a High-Retention Blog Post with Image Prompts for Each Section\n")
	writeExternal(&b, in.Documents)

	b.WriteString("\n# Identity (Persona):\n")
	fmt.Fprintf(&b, "- Name: %s\n", nickname)
	fmt.Fprintf(&b, "- Selected Style: %s (STRICTLY match this tone)\n", persona)
	fmt.Fprintf(&b, "- Voice: Use the tone of '%s'.\n", persona)
	fmt.Fprintf(&b, "- Rule: NEVER mention you are an AI. Act strictly as the human expert '%s'.\n\n", nickname)

	b.WriteString("# Context Data (Integrate these naturally):\n")
	fmt.Fprintf(&b, "- Story Strategy: %s\n", in.Styles.StrategyKey())
	fmt.Fprintf(&b, "- Product/Topic: %s\n", product)
	fmt.Fprintf(&b, "- Target Customer: %s (Address them as 'you')\n", in.prior(StepCustomer))
	fmt.Fprintf(&b, "- Key Fact/Trend: %s (Use this to validate the problem in 'The Wall' section)\n", facts)
	fmt.Fprintf(&b, "- Story Draft: %s (Expand this into the full narrative)\n", in.prior(StepDraft))
	fmt.Fprintf(&b, "- Synopsis: %s\n\n", in.prior(StepSynopsis))

	b.WriteString("# [Writing Guidelines]\n")
	b.WriteString("1. **Mobile First**: Short paragraphs (2-3 sentences max). Use line breaks frequently.\n")
	b.WriteString("2. **Visual Thinking**: For every section, provide a specific image prompt for 'Nano Banana' (AI Artist).\n")
	fmt.Fprintf(&b, "3. **SEO**: Mention '%s' naturally 5+ times.\n\n", product)

	b.WriteString("---\n")
	b.WriteString("# [Output Format - Strictly Follow This Structure]\n\n")
	b.WriteString("## 1. Title Options\n")
	b.WriteString("- Provide 3 viral titles. (Mix curiosity & benefit).\n\n")
	b.WriteString("## 2. Blog Post Body\n\n")
	b.WriteString("**[TL;DR Summary]**\n")
	b.WriteString("- Start with \"요약:\" followed by 2 sentences summarizing the problem and solution.\n\n")
	b.WriteString("**(Line Break)**\n\n")

	b.WriteString("**[Intro: The Hook]**\n")
	b.WriteString("- Start with a strong immersive scene or question from the draft.\n")
	b.WriteString("- Empathize with the customer's pain immediately.\n")
	writeMarker(&b, "a high-quality 3D Pixar-style image depicting the tension or hook scene")

	b.WriteString("**[Body 1: The Wall (Problem Deep Dive)]**\n")
	b.WriteString("- Describe the failure of the 'Old Way'. Why didn't it work?\n")
	fmt.Fprintf(&b, "- Use '%s' here to show this is a common problem.\n", facts)
	writeMarker(&b, "a 3D Pixar-style image showing the frustration or the specific problem situation")

	b.WriteString("**[Body 2: The Epiphany (The Solution)]**\n")
	b.WriteString("- The turning point. How did you discover the solution?\n")
	b.WriteString("- Focus on the 'Aha!' moment and the new perspective.\n")
	writeMarker(&b, "a 3D Pixar-style image showing the moment of discovery, the 'magic tool', or the solution in action")

	b.WriteString("**[Body 3: The Offer (Benefit & Result)]**\n")
	fmt.Fprintf(&b, "- How '%s' solves the problem specifically.\n", product)
	b.WriteString("- Focus on the user's benefit and the happy result.\n")
	writeMarker(&b, "a 3D Pixar-style image showing the happy result, success, or the character enjoying the benefit")

	b.WriteString("**[Conclusion & CTA]**\n")
	b.WriteString("- Summarize the main value.\n")
	b.WriteString("- **Strong Call To Action**: Tell them exactly what to do next (e.g., \"Click the link\", \"Add neighbor\").\n\n")

	b.WriteString("## 3. Recommended Hashtags (10 Tags)\n")
	b.WriteString("- Extract essential morphemes/keywords from:\n")
	fmt.Fprintf(&b, "  1. Main Topic (%s)\n", product)
	b.WriteString("  2. Subheadings used above\n")
	b.WriteString("  3. Key content words\n")
	b.WriteString("- Format: #Keyword1 #Keyword2 ... (Total 10)\n\n")
	b.WriteString("---\n")
	b.WriteString("**Language:** Korean for the blog post. **English** for the Image Prompts.\n")
	return b.String()
}

// writeExternal places the loaded documents ahead of the default rules.
func writeExternal(b *strings.Builder, docs Documents) {
	if docs.Empty() {
		return
	}
	b.WriteString("\n# External Inputs\n")
	b.WriteString("- Follow these external rules strictly if provided; otherwise follow default rules.\n")
	if v := strings.TrimSpace(docs.Persona); v != "" {
		b.WriteString("\n# External Persona (from file)\n")
		b.WriteString(v + "\n")
	}
	if v := strings.TrimSpace(docs.WritingRules); v != "" {
		b.WriteString("\n# External Writing Rules (from file)\n")
		b.WriteString(v + "\n")
	}
}

func writeMarker(b *strings.Builder, description string) {
	fmt.Fprintf(b, "- %s: Describe %s. (English description)\n\n", imageMarker, description)
}

func writeStructure(b *strings.Builder, headings ...string) {
	b.WriteString("Structure:\n")
	for _, h := range headings {
		b.WriteString("- **" + h + "**: ...\n")
	}
}
