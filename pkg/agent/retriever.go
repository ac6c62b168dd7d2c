package agent

import (
	"context"
	"sort"
	"strings"
)

// KeywordRetriever is an in-memory retriever that scores documents by
// keyword overlap with the query. It is deterministic, needs no external
// service, and is good enough for a small troubleshooting corpus.
type KeywordRetriever struct {
	docs []Passage
}

// NewKeywordRetriever creates a retriever over the given documents.
func NewKeywordRetriever(docs ...Passage) *KeywordRetriever {
	return &KeywordRetriever{docs: docs}
}

// NewDefaultKnowledgeBase creates a retriever loaded with the built-in
// troubleshooting documentation.
func NewDefaultKnowledgeBase() *KeywordRetriever {
	return NewKeywordRetriever(defaultKnowledge()...)
}

// Add appends a document to the corpus.
func (r *KeywordRetriever) Add(title, content string) {
	r.docs = append(r.docs, Passage{Title: title, Content: content})
}

// Retrieve returns the k best-scoring documents for the query. Documents
// with no keyword in common with the query are never returned.
func (r *KeywordRetriever) Retrieve(_ context.Context, query string, k int) ([]Passage, error) {
	terms := tokenize(query)
	if len(terms) == 0 || k <= 0 {
		return nil, nil
	}

	scored := make([]Passage, 0, len(r.docs))
	for _, doc := range r.docs {
		text := strings.ToLower(doc.Title + " " + doc.Content)
		hits := 0
		for term := range terms {
			if strings.Contains(text, term) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		doc.Score = float64(hits) / float64(len(terms))
		scored = append(scored, doc)
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func tokenize(s string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(s)) {
		f = strings.Trim(f, ".,;:!?\"'()")
		if len(f) < 3 {
			continue
		}
		terms[f] = struct{}{}
	}
	return terms
}

func defaultKnowledge() []Passage {
	return []Passage{
		{
			Title: "Linea lenta",
			Content: "Velocità ridotta rispetto al contratto: eseguire run_speed_test e confrontare con la velocità contrattuale. " +
				"Sotto l'80% del contratto verificare qualità del segnale con check_line_status. " +
				"Su FTTC la velocità dipende dalla distanza dall'armadio; sotto il 50% aprire segnalazione tecnica.",
		},
		{
			Title: "Connessione assente",
			Content: "Internet assente: controllare lo stato della linea con check_line_status. " +
				"Se la linea risulta attiva ma il modem non sincronizza, eseguire reset_modem avvisando il cliente " +
				"che la connessione cadrà per 2-3 minuti. Se la linea resta giù dopo il riavvio, escalation a tecnico.",
		},
		{
			Title: "Segnale degradato",
			Content: "Qualità segnale sotto il 60%: linea degradata, probabili disconnessioni frequenti. " +
				"Un riavvio del modem può ripristinare la sincronizzazione. Se dopo il reset il segnale resta sotto il 50%, " +
				"serve intervento tecnico sulla linea fisica.",
		},
		{
			Title: "WiFi instabile",
			Content: "WiFi lento o instabile con linea in buone condizioni: probabile interferenza. " +
				"Cambiare canale WiFi con change_wifi_channel scegliendo 1, 6 o 11 sulla banda 2.4GHz. " +
				"Se il problema è la copertura, suggerire di avvicinarsi al modem o un ripetitore.",
		},
		{
			Title: "Disconnessioni frequenti",
			Content: "Più di 10 disconnessioni nelle ultime 24 ore indicano una linea instabile. " +
				"Eseguire reset_modem come primo passo; se le cadute continuano, escalation con apertura ticket.",
		},
		{
			Title: "Escalation",
			Content: "Trasferire a operatore umano quando: il problema persiste dopo i passi di troubleshooting, " +
				"la linea è giù in modo persistente anche dopo il reset, il segnale resta sotto il 50%, " +
				"il cliente chiede un tecnico a domicilio o servono azioni amministrative.",
		},
	}
}
