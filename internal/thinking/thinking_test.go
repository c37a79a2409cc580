package thinking

import (
	"strings"
	"testing"
)

func TestClassifyDelimiters(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Segmentation
	}{
		{
			name: "thinking tag",
			text: "<thinking>I should check X</thinking>The answer is 42.",
			want: Segmentation{Thinking: "I should check X", Response: "The answer is 42."},
		},
		{
			name: "reasoning tag spans lines",
			text: "<reasoning>\nstep one\nstep two\n</reasoning>\n\nDone.",
			want: Segmentation{Thinking: "step one\nstep two", Response: "Done."},
		},
		{
			name: "thought tag in the middle",
			text: "Intro. <thought>hmm</thought> Outro.",
			want: Segmentation{Thinking: "hmm", Response: "Intro.  Outro."},
		},
		{
			name: "think tag",
			text: "<think>\nThe user wants a greeting.\n</think>\n\nHello!",
			want: Segmentation{Thinking: "The user wants a greeting.", Response: "Hello!"},
		},
		{
			name: "empty think tag",
			text: "<think>\n\n</think>\n\nHello!",
			want: Segmentation{Thinking: "", Response: "Hello!"},
		},
		{
			name: "bracket thinking",
			text: "[thinking]compare both[/thinking]Option B.",
			want: Segmentation{Thinking: "compare both", Response: "Option B."},
		},
		{
			name: "bracket reasoning",
			text: "[reasoning]why[/reasoning] because.",
			want: Segmentation{Thinking: "why", Response: "because."},
		},
		{
			name: "non-greedy match stops at first close",
			text: "<thinking>a</thinking>middle<thinking>b</thinking>end",
			want: Segmentation{Thinking: "a\n\nb", Response: "middleend"},
		},
		{
			name: "first pattern in priority order wins",
			text: "[thinking]bracket[/thinking]<reasoning>tag</reasoning>rest",
			want: Segmentation{Thinking: "tag", Response: "[thinking]bracket[/thinking]rest"},
		},
		{
			name: "lead-in ends at blank line",
			text: "Let me think about this. It is tricky.\n\nThe answer is 7.",
			want: Segmentation{Thinking: "It is tricky.", Response: "The answer is 7."},
		},
		{
			name: "lead-in ends at capitalised line",
			text: "Let me break this down. parts a and b\nso both\nResult: a+b",
			want: Segmentation{Thinking: "parts a and b\nso both", Response: "Result: a+b"},
		},
		{
			name: "lead-in runs to end of text",
			text: "Intro line\n\nFirst, let me analyze this. still going",
			want: Segmentation{Thinking: "still going", Response: "Intro line"},
		},
		{
			name: "unclosed tag is not a delimiter",
			text: "<thinking>still streaming",
			want: Segmentation{Response: "<thinking>still streaming"},
		},
		{
			name: "tags are case sensitive",
			text: "<THINKING>x</THINKING>y",
			want: Segmentation{Response: "<THINKING>x</THINKING>y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			if got != tt.want {
				t.Errorf("Classify(%q)\n expected %+v\n got      %+v", tt.text, tt.want, got)
			}
		})
	}
}

func TestClassifyLineScan(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Segmentation
	}{
		{
			name: "short lines after lead-in stay reasoning",
			text: "Let me think step by step.\nOK so\nThe capital of France is Paris, of course.",
			want: Segmentation{
				Thinking: "Let me think step by step.\nOK so",
				Response: "The capital of France is Paris, of course.",
			},
		},
		{
			name: "indicator is case insensitive",
			text: "I NEED TO THINK here\nThis line is long enough to be an answer.",
			want: Segmentation{
				Thinking: "I NEED TO THINK here",
				Response: "This line is long enough to be an answer.",
			},
		},
		{
			name: "once the response starts short lines follow it",
			text: "Let me consider options\nThis is definitely the answer text.\nyes",
			want: Segmentation{
				Thinking: "Let me consider options",
				Response: "This is definitely the answer text.\nyes",
			},
		},
		{
			name: "lines before the lead-in are response",
			text: "Hello\nLet me analyze it\nok",
			want: Segmentation{Thinking: "Let me analyze it", Response: "Hello\nok"},
		},
		{
			name: "only the first indicator starts reasoning",
			text: "Let me think\nshort\nLet me consider the longer alternative here",
			want: Segmentation{
				Thinking: "Let me think\nshort",
				Response: "Let me consider the longer alternative here",
			},
		},
		{
			name: "lines are trimmed",
			text: "  thinking about this  \n\n   A long and clearly substantial answer.  ",
			want: Segmentation{
				Thinking: "thinking about this",
				Response: "A long and clearly substantial answer.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			if got != tt.want {
				t.Errorf("Classify(%q)\n expected %+v\n got      %+v", tt.text, tt.want, got)
			}
		})
	}
}

func TestClassifyFallsThrough(t *testing.T) {
	texts := []string{
		"",
		"Hello world",
		"  padded  \n\n text \n",
		"Let me think",
		"Let me think\nok\nfine",
		"plain\n\nparagraphs\nwith lines",
		"unicode ✓ 世界",
	}
	for _, text := range texts {
		got := Classify(text)
		if got.Thinking != "" || got.Response != text {
			t.Errorf("Classify(%q) expected unchanged text, got %+v", text, got)
		}
		if got.HasThinking() {
			t.Errorf("Classify(%q) reported thinking", text)
		}
	}
}

func TestClassifyNoMarkerLeakage(t *testing.T) {
	texts := []string{
		"<thinking>I should check X</thinking>The answer is 42.",
		"<think>a\nb</think>\n\nFinal.",
		"[reasoning]r[/reasoning]Answer here.",
		"before <thought>t</thought> after",
		"Let me think about this. hmm\n\nOk.",
	}
	for _, text := range texts {
		first := Classify(text)
		if !first.HasThinking() {
			t.Fatalf("Classify(%q) found no thinking", text)
		}
		second := Classify(first.Response)
		if second.Thinking != "" || second.Response != first.Response {
			t.Errorf("Classify(%q) is not stable on its response: %+v", first.Response, second)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	text := "Let me analyze\nshort\n<reasoning>x</reasoning>\nThe answer follows after this line."
	want := Classify(text)
	for i := 0; i < 10; i++ {
		if got := Classify(text); got != want {
			t.Fatalf("run %d: expected %+v, got %+v", i, want, got)
		}
	}
}

// The kept characters of both segments must appear in the original text in
// their original order.
func TestClassifyPreservesOrder(t *testing.T) {
	texts := []string{
		"<thinking>alpha</thinking>beta",
		"pre <think>mid</think> post",
		"Let me think step by step.\nOK so\nThe capital of France is Paris, of course.",
		"Let me break this down. parts\nResult",
	}
	for _, text := range texts {
		seg := Classify(text)
		if !isSubsequence(seg.Thinking, text) || !isSubsequence(seg.Response, text) {
			t.Errorf("Classify(%q) = %+v is not drawn from the text", text, seg)
		}
	}
}

func TestClassifyLongInput(t *testing.T) {
	text := strings.Repeat("<thinking>x</thinking>y", 5000) + strings.Repeat("line\n", 5000)
	seg := Classify(text)
	if !strings.HasPrefix(seg.Response, "yyy") {
		t.Errorf("unexpected response prefix %q", seg.Response[:10])
	}
}

func isSubsequence(sub, s string) bool {
	rs := []rune(s)
	i := 0
	for _, r := range sub {
		for i < len(rs) && rs[i] != r {
			i++
		}
		if i == len(rs) {
			return false
		}
		i++
	}
	return true
}
