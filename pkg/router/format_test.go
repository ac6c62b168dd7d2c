package router

import (
	"testing"

	"github.com/voicecare-ai/voicecare/pkg/tools"
)

func TestFormatForVoice_VerifyCustomer(t *testing.T) {
	got := FormatForVoice(tools.ToolVerifyCustomer, map[string]any{
		"found":       true,
		"name":        "Mario Rossi",
		"customer_id": "CL123456",
	})
	if !got.Success {
		t.Fatal("want success")
	}
	if got.Message != "Cliente verificato: Mario Rossi" {
		t.Errorf("Message = %q", got.Message)
	}

	got = FormatForVoice(tools.ToolVerifyCustomer, map[string]any{"found": false})
	if got.Success {
		t.Fatal("want failure for unknown customer")
	}
	if got.Message != "Cliente non trovato. Può ripetere il codice?" {
		t.Errorf("Message = %q", got.Message)
	}
}

func TestFormatForVoice_ResetModem(t *testing.T) {
	got := FormatForVoice(tools.ToolResetModem, map[string]any{"status": "success"})
	if got.Message != "Modem in fase di riavvio. Attenda 2-3 minuti per il ripristino." {
		t.Errorf("Message = %q", got.Message)
	}
}

func TestFormatForVoice_LineStatusBands(t *testing.T) {
	tests := []struct {
		name   string
		signal any
		want   string
	}{
		{"excellent", 85, "Linea in ottime condizioni. Qualità segnale al 85%."},
		{"boundary 80 is not excellent", 80, "Linea accettabile con qualità al 80%. Possibile lieve degrado."},
		{"acceptable", 70, "Linea accettabile con qualità al 70%. Possibile lieve degrado."},
		{"boundary 60 is degraded", 60, "Rilevato problema sulla linea. Qualità segnale bassa al 60%."},
		{"degraded", 45, "Rilevato problema sulla linea. Qualità segnale bassa al 45%."},
		{"float from json", float64(85), "Linea in ottime condizioni. Qualità segnale al 85%."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatForVoice(tools.ToolCheckLineStatus, map[string]any{"signal_quality": tt.signal})
			if got.Message != tt.want {
				t.Errorf("Message = %q, want %q", got.Message, tt.want)
			}
		})
	}
}

func TestFormatForVoice_AnalysisSurfacedVerbatim(t *testing.T) {
	analysis := "La linea mostra 12 disconnessioni nelle ultime 24 ore, consiglio un riavvio del modem."
	got := FormatForVoice(tools.ToolCheckLineStatus, map[string]any{
		"signal_quality": 45,
		"analysis":       analysis,
	})
	if got.Message != analysis {
		t.Errorf("Message = %q, want analysis verbatim", got.Message)
	}
}

func TestFormatForVoice_SpeedTest(t *testing.T) {
	tests := []struct {
		name     string
		download any
		contract any
		want     string
	}{
		{"within contract", 950.0, 1000, "Velocità corretta: 950 Mbps, in linea con il contratto."},
		{"boundary 80 percent is reduced", 800.0, 1000, "Velocità ridotta: 800 Mbps invece di 1000 attesi."},
		{"reduced", 85.5, 200, "Velocità ridotta: 85.5 Mbps invece di 200 attesi."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatForVoice(tools.ToolRunSpeedTest, map[string]any{
				"download_speed": tt.download,
				"contract_speed": tt.contract,
			})
			if got.Message != tt.want {
				t.Errorf("Message = %q, want %q", got.Message, tt.want)
			}
		})
	}
}

func TestFormatForVoice_FailureShortCircuits(t *testing.T) {
	got := FormatForVoice(tools.ToolCheckLineStatus, map[string]any{
		"success": false,
		"message": "Backend non raggiungibile",
	})
	if got.Success {
		t.Fatal("want failure")
	}
	if got.Message != "Backend non raggiungibile" {
		t.Errorf("Message = %q", got.Message)
	}

	got = FormatForVoice(tools.ToolCheckLineStatus, map[string]any{"success": false})
	if got.Message != "Operazione non riuscita" {
		t.Errorf("Message = %q, want default failure sentence", got.Message)
	}
}

func TestFormatForVoice_GenericTool(t *testing.T) {
	got := FormatForVoice(tools.ToolChangeWifiChannel, map[string]any{
		"status":  "success",
		"message": "WiFi channel changed to 6",
	})
	if !got.Success || got.Message != "WiFi channel changed to 6" {
		t.Errorf("got %+v", got)
	}

	got = FormatForVoice("something_else", map[string]any{})
	if got.Message != "Operazione completata." {
		t.Errorf("Message = %q, want default completion sentence", got.Message)
	}
}
