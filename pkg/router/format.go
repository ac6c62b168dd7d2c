package router

import (
	"fmt"

	"github.com/voicecare-ai/voicecare/pkg/tools"
)

// FormatForVoice turns a raw tool result into a spoken sentence. Tool
// results are structured and technical; the caller hears natural language.
func FormatForVoice(name string, result map[string]any) *Result {
	// An explicit failure short-circuits every per-tool rule.
	if success, ok := result["success"].(bool); ok && !success {
		message, _ := result["message"].(string)
		if message == "" {
			message = "Operazione non riuscita"
		}
		return &Result{Success: false, Message: message, Raw: result}
	}

	switch name {
	case tools.ToolVerifyCustomer:
		if found, _ := result["found"].(bool); found {
			nome, _ := result["name"].(string)
			return &Result{
				Success: true,
				Message: fmt.Sprintf("Cliente verificato: %s", nome),
				Raw:     result,
			}
		}
		return &Result{
			Success: false,
			Message: "Cliente non trovato. Può ripetere il codice?",
			Raw:     result,
		}

	case tools.ToolResetModem:
		return &Result{
			Success: true,
			Message: "Modem in fase di riavvio. Attenda 2-3 minuti per il ripristino.",
			Raw:     result,
		}

	case tools.ToolCheckLineStatus:
		if analysis, ok := result["analysis"].(string); ok {
			return &Result{Success: true, Message: analysis, Raw: result}
		}
		signal := intValue(result["signal_quality"])
		var message string
		switch {
		case signal > 80:
			message = fmt.Sprintf("Linea in ottime condizioni. Qualità segnale al %d%%.", signal)
		case signal > 60:
			message = fmt.Sprintf("Linea accettabile con qualità al %d%%. Possibile lieve degrado.", signal)
		default:
			message = fmt.Sprintf("Rilevato problema sulla linea. Qualità segnale bassa al %d%%.", signal)
		}
		return &Result{Success: true, Message: message, Raw: result}

	case tools.ToolRunSpeedTest:
		if analysis, ok := result["analysis"].(string); ok {
			return &Result{Success: true, Message: analysis, Raw: result}
		}
		download := floatValue(result["download_speed"])
		contract := floatValue(result["contract_speed"])
		if contract == 0 {
			contract = 100
		}
		var message string
		if download/contract*100 > 80 {
			message = fmt.Sprintf("Velocità corretta: %v Mbps, in linea con il contratto.", trimFloat(download))
		} else {
			message = fmt.Sprintf("Velocità ridotta: %v Mbps invece di %v attesi.", trimFloat(download), trimFloat(contract))
		}
		return &Result{Success: true, Message: message, Raw: result}

	default:
		if analysis, ok := result["analysis"].(string); ok {
			return &Result{Success: true, Message: analysis, Raw: result}
		}
		if message, ok := result["message"].(string); ok {
			return &Result{Success: true, Message: message, Raw: result}
		}
		return &Result{Success: true, Message: "Operazione completata.", Raw: result}
	}
}

// intValue reads a number that may be an int from an action or a float64
// from decoded JSON.
func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func floatValue(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

// trimFloat drops a trailing .0 so whole numbers read naturally.
func trimFloat(v float64) any {
	if v == float64(int64(v)) {
		return int64(v)
	}
	return v
}
