package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDossierStatus(t *testing.T) {
	for _, s := range []DossierStatus{
		DossierPending, DossierInProgress, DossierDocumentsMissing,
		DossierAccepted, DossierRejected, DossierCancelled,
	} {
		require.True(t, s.Valid(), s)
	}
	require.False(t, DossierStatus("approved").Valid())
	require.False(t, DossierStatus("").Valid())

	require.False(t, DossierPending.IsTerminal())
	require.False(t, DossierInProgress.IsTerminal())
	require.False(t, DossierDocumentsMissing.IsTerminal())
	require.True(t, DossierAccepted.IsTerminal())
	require.True(t, DossierRejected.IsTerminal())
	require.True(t, DossierCancelled.IsTerminal())

	require.NotContains(t, BlockingStatuses, DossierDocumentsMissing)
}

func TestDossierDocumentList(t *testing.T) {
	var d Dossier
	require.Nil(t, d.DocumentList())

	d.SetDocumentList(nil)
	require.Equal(t, "[]", d.Documents)
	require.Empty(t, d.DocumentList())

	d.SetDocumentList([]DossierDocument{
		{Name: "payslip-june.pdf", Type: "payslip", Status: "pending"},
		{Name: "id.pdf", Type: "id card", Status: "pending"},
	})
	docs := d.DocumentList()
	require.Len(t, docs, 2)
	require.Equal(t, "payslip", docs[0].Type)
	require.Equal(t, "id card", docs[1].Type)
}

func TestAppendAdminComment(t *testing.T) {
	var d Dossier
	at := time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC)

	d.AppendAdminComment(at, "Documents requested: payslip")
	require.Equal(t, "[2024-05-02T10:30:00Z] Documents requested: payslip", d.AdminComments)

	d.AppendAdminComment(at.Add(time.Hour), "Documents requested: id card")
	lines := strings.Split(d.AdminComments, "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[1], "[2024-05-02T11:30:00Z]"))
}
