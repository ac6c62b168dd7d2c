package router

import (
	"fmt"

	"github.com/voicecare-ai/voicecare/pkg/tools"
)

// BuildPrompt renders the reasoning prompt for a deep-tier tool. Pure
// function of its inputs; the per-tool templates guide the reasoner to
// interpret readings and answer in a voice-friendly way.
func BuildPrompt(name string, args map[string]any) string {
	customerID, _ := args["customer_id"].(string)
	if customerID == "" {
		customerID = "unknown"
	}

	switch name {
	case tools.ToolCheckLineStatus:
		return fmt.Sprintf(`Analizza lo stato della linea per cliente %s.

Usa check_line_status per ottenere dati tecnici.
Interpreta i risultati:
- Signal quality: cosa significa?
- Connection drops: è un problema?
- Cosa consigliare al cliente?

Rispondi in modo chiaro per conversazione vocale.`, customerID)

	case tools.ToolRunSpeedTest:
		return fmt.Sprintf(`Esegui speed test per cliente %s e analizza risultati.

Usa run_speed_test e confronta con velocità contrattuale.
Spiega al cliente in modo semplice se la velocità è corretta o no.`, customerID)

	case tools.ToolDiagnoseConnection:
		problem, _ := args["problem_description"].(string)
		return fmt.Sprintf(`Cliente %s riporta: "%s"

Diagnosi completa:
1. Usa knowledge base per scenari simili
2. Esegui check_line_status
3. Analizza risultati
4. Proponi soluzione o escalation

Rispondi per conversazione vocale, massimo 3-4 frasi.`, customerID, problem)

	case tools.ToolComplexTroubleshooting:
		issueType, _ := args["issue_type"].(string)
		if issueType == "" {
			issueType = "generic"
		}
		details, _ := args["details"].(string)
		return fmt.Sprintf(`Troubleshooting complesso per cliente %s.
Tipo problema: %s
Dettagli: %s

Usa tutti i tools e knowledge base necessari per diagnosi approfondita.
Fornisci raccomandazione chiara.`, customerID, issueType, details)

	default:
		return fmt.Sprintf("Esegui %s per cliente %s con argomenti: %v", name, customerID, args)
	}
}
