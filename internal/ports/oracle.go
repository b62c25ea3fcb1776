package ports

import (
	"context"

	"github.com/alejandrodnm/predictor/internal/domain"
)

// Oracle determina la respuesta correcta de un evento. Se consume como caja
// negra: el orquestador nunca inspecciona su retry/prompt interno.
//
// Contrato: Resolve nunca falla. Ante cualquier problema interno (transporte,
// timeout, respuesta malformada) devuelve domain.FallbackResolution, de modo
// que la resolución siempre termina y ninguna apuesta queda pendiente por
// culpa del oráculo.
type Oracle interface {
	Resolve(ctx context.Context, title, description string) domain.Resolution
}
