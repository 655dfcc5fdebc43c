package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestNegotiate(t *testing.T) {
	assert.Equal(t, language.Spanish, Negotiate(""))
	assert.Equal(t, language.Spanish, Negotiate("es-AR,es;q=0.9"))
	assert.Equal(t, language.English, Negotiate("en-US,en;q=0.8"))
	assert.Equal(t, language.English, Negotiate("fr;q=0.9,en;q=0.5"))
	assert.Equal(t, language.Spanish, Negotiate("###"))
}

func TestTranslate(t *testing.T) {
	assert.Equal(t, "El evento no existe", Translate(language.Spanish, "EVENT_NOT_FOUND", "x"))
	assert.Equal(t, "The event does not exist", Translate(language.English, "EVENT_NOT_FOUND", "x"))
	assert.Equal(t, "fallback", Translate(language.English, "NO_SUCH_CODE", "fallback"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "musica", Fold(" Música "))
	assert.Equal(t, "cordoba", Fold("CÓRDOBA"))
	assert.Equal(t, "pinata", Fold("Piñata"))
	assert.True(t, ContainsFolded("Centro de Convenciones, Córdoba", "cordoba"))
	assert.True(t, ContainsFolded("Feria Gastronómica", "GASTRONOMICA"))
	assert.False(t, ContainsFolded("Tour Histórico", "jazz"))
	assert.True(t, ContainsFolded("anything", ""))
}
