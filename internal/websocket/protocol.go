package websocket

import "encoding/json"

// Wire vocabulary of the duplex channel. Clients send question messages,
// the server answers with stage/progress events, a stream_start | chunk*
// | stream_end sequence (or a single response message), and error events.

type QuestionMessage struct {
	Type    string        `json:"type"`
	Content string        `json:"content"`
	History []HistoryItem `json:"history,omitempty"`
}

type HistoryItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type stageMessage struct {
	Type    string `json:"type"`
	Stage   string `json:"stage"`
	Content string `json:"content"`
}

type workerProgressMessage struct {
	Type   string `json:"type"`
	Worker int    `json:"worker"`
	Total  int    `json:"total"`
	Status string `json:"status"`
}

type streamStartMessage struct {
	Type string `json:"type"`
}

// chunkMessage carries the raw fragment plus the full accumulated buffer
// re-rendered to safe HTML, so clients can repaint without tracking
// partial markup state.
type chunkMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	HTML    string `json:"html,omitempty"`
}

type streamEndMessage struct {
	Type string `json:"type"`
	HTML string `json:"html,omitempty"`
}

type responseMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	HTML    string `json:"html,omitempty"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type corpusUpdateMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Every message type here is a flat struct of strings and ints.
		panic(err)
	}
	return data
}

func NewStageMessage(stage, content string) []byte {
	return mustMarshal(stageMessage{Type: "stage", Stage: stage, Content: content})
}

func NewWorkerProgressMessage(worker, total int, status string) []byte {
	return mustMarshal(workerProgressMessage{Type: "worker_progress", Worker: worker, Total: total, Status: status})
}

func NewStreamStartMessage() []byte {
	return mustMarshal(streamStartMessage{Type: "stream_start"})
}

func NewChunkMessage(content, html string) []byte {
	return mustMarshal(chunkMessage{Type: "chunk", Content: content, HTML: html})
}

func NewStreamEndMessage(html string) []byte {
	return mustMarshal(streamEndMessage{Type: "stream_end", HTML: html})
}

func NewResponseMessage(content, html string) []byte {
	return mustMarshal(responseMessage{Type: "response", Content: content, HTML: html})
}

func NewErrorMessage(content string) []byte {
	return mustMarshal(errorMessage{Type: "error", Content: content})
}

func NewCorpusUpdateMessage(content string) []byte {
	return mustMarshal(corpusUpdateMessage{Type: "corpus_update", Content: content})
}
