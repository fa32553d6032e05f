package actionable

import (
	"fmt"

	"interview-insights-go/internal/scoring"
	"interview-insights-go/internal/types"
)

// StrongOverall is the overall rating at which no single criterion is singled out.
const StrongOverall = 8.0

type playbook struct {
	action string
	impact string
}

var playbooks = map[string]playbook{
	"clarity": {
		action: "Record the answer again using short sentences and one idea per sentence; cut filler words",
		impact: "Interviewers follow the answer on first hearing",
	},
	"structure": {
		action: "Frame the answer as present, past, future and close with why you fit the role",
		impact: "Answer has a clear start and finish inside two minutes",
	},
	"confidence": {
		action: "Rehearse the opening three lines aloud until they need no pauses; keep a steady pace",
		impact: "Delivery sounds prepared rather than recalled",
	},
	"relevance": {
		action: "Tie every point to the question asked; drop details the role does not need",
		impact: "Each sentence earns its place in the answer",
	},
	"communication": {
		action: "Practise with a peer and ask for one concrete note on tone and eye contact each round",
		impact: "More natural, engaging delivery",
	},
}

func Generate(s scoring.Summary) types.CoachingCard {
	if s.Overall >= StrongOverall {
		return types.CoachingCard{
			FocusArea: fmt.Sprintf("Strong answer (%.1f/10)", s.Overall),
			Action:    "Keep practising with follow-up questions and vary the examples you use",
			Impact:    "Keeps the answer fresh under interview pressure",
		}
	}
	pb, ok := playbooks[s.Weakest.Name]
	if !ok {
		return types.CoachingCard{
			FocusArea: "No clear weak area detected",
			Action:    "Record another attempt and compare ratings",
			Impact:    "More data for targeted feedback",
		}
	}
	return types.CoachingCard{
		FocusArea: fmt.Sprintf("Improve %s (%.1f/10)", s.Weakest.Name, s.Weakest.Score),
		Action:    pb.action,
		Impact:    pb.impact,
	}
}
