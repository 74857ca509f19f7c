package domain

// PromptMessage is one turn of model input. Unlike Message it carries no
// timestamp; it exists only on the wire to the model client.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	Conversation     *Conversation `json:"conversation"`
	Reply            string        `json:"reply"`
	Topic            string        `json:"topic"`
	UsedMaterialText bool          `json:"used_material_text"`
	Degraded         bool          `json:"degraded"`
	SummaryRefreshed bool          `json:"summary_refreshed"`
}
