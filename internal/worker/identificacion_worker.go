package worker

// identificacion_worker.go
// Processes conductor-identification jobs from QueueIdentificacion.
// Looks up the DNI registered for the multa's plate, queries the empresa's
// conductor microservice and moves the multa to conductor_identificado or
// error_identificacion. Transient transport failures stay in
// pendiente_identificacion and are rescheduled with exponential backoff.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Disi3664/sistema-multas/internal/dto"
	"github.com/Disi3664/sistema-multas/internal/infra"
	"github.com/Disi3664/sistema-multas/internal/model"
	"github.com/Disi3664/sistema-multas/internal/repository"
	"github.com/Disi3664/sistema-multas/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MaxIdentificacionRetries bounds transient-failure re-attempts before the
// multa is parked in error_identificacion and its job lands in the DLQ.
const MaxIdentificacionRetries = 5

// IdentificacionWorker resolves the conductor of a multa via the owning
// empresa's microservice.
type IdentificacionWorker struct {
	multaRepo repository.MultaRepository
	conductor service.ConductorService
	cb        *infra.CircuitBreaker
	rdb       *redis.Client
}

func NewIdentificacionWorker(
	multaRepo repository.MultaRepository,
	conductor service.ConductorService,
	cb *infra.CircuitBreaker,
	rdb *redis.Client,
) *IdentificacionWorker {
	return &IdentificacionWorker{multaRepo: multaRepo, conductor: conductor, cb: cb, rdb: rdb}
}

// Process handles a single identificacion job from the queue.
func (w *IdentificacionWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload IdentificacionJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("identificacion_worker: invalid payload")
		return
	}
	multaID, err := uuid.Parse(payload.MultaID)
	if err != nil {
		log.Error().Str("multa_id", payload.MultaID).Msg("identificacion_worker: invalid multa_id")
		return
	}
	w.ProcessMulta(ctx, multaID)
}

// ProcessMulta runs one identification attempt for the given multa.
// Also the entry point of the retry cron.
func (w *IdentificacionWorker) ProcessMulta(ctx context.Context, multaID uuid.UUID) {
	data, err := w.multaRepo.FindForIdentificacion(ctx, multaID)
	if err != nil {
		log.Error().Err(err).Str("multa_id", multaID.String()).Msg("identificacion_worker: multa not found")
		return
	}
	multa := data.Multa

	// Jobs can be re-delivered; only act on multas still awaiting identification.
	if multa.Estado != model.EstadoPendienteIdentificacion {
		log.Debug().
			Str("multa_id", multa.ID.String()).
			Str("estado", multa.Estado).
			Msg("identificacion_worker: multa ya procesada, se ignora")
		return
	}

	// No DNI registered for the plate — terminal, no external call.
	if data.DNIConductor == nil || *data.DNIConductor == "" {
		obs := "vehiculo sin conductor asignado"
		w.markError(ctx, multa, obs)
		return
	}
	dni := *data.DNIConductor

	var conductor *dto.ConductorData
	var terminalErr error
	cbErr := w.cb.Execute(func() error {
		c, err := w.conductor.ConsultarConductor(ctx, multa.EmpresaID, dni)
		switch {
		case err == nil:
			conductor = c
			return nil
		case errors.Is(err, service.ErrConductorNoEncontrado),
			errors.Is(err, service.ErrEmpresaSinAPI):
			// Terminal domain outcomes, not transport failures — the breaker
			// must not trip on these.
			terminalErr = err
			return nil
		default:
			return err
		}
	})

	switch {
	case cbErr != nil:
		// Transient (unreachable microservicio or open breaker): stay in
		// pendiente_identificacion and let the retry cron pick it up.
		w.scheduleRetry(ctx, multa, cbErr)

	case errors.Is(terminalErr, service.ErrConductorNoEncontrado):
		obs := fmt.Sprintf("conductor con DNI %s no encontrado en el sistema de la empresa", dni)
		w.markError(ctx, multa, obs)

	case errors.Is(terminalErr, service.ErrEmpresaSinAPI):
		// Misconfiguration: keep waiting but never auto-retry — fixing the
		// empresa's credentials is an operator action.
		msg := terminalErr.Error()
		multa.LastError = &msg
		multa.NextRetryAt = nil
		if err := w.multaRepo.Update(ctx, multa); err != nil {
			log.Error().Err(err).Str("multa_id", multa.ID.String()).Msg("identificacion_worker: update failed")
		}
		log.Warn().
			Str("multa_id", multa.ID.String()).
			Str("empresa_id", multa.EmpresaID.String()).
			Msg("identificacion_worker: empresa sin API configurada, identificacion en espera")

	default:
		w.markIdentified(ctx, multa, conductor)
	}
}

func (w *IdentificacionWorker) markIdentified(ctx context.Context, multa *model.Multa, c *dto.ConductorData) {
	nombre := c.Nombre
	if c.Apellidos != "" {
		nombre = c.Nombre + " " + c.Apellidos
	}
	direccion := composeDireccion(c)

	multa.ConductorDNI = &c.DNI
	multa.ConductorNombre = &nombre
	multa.ConductorEmail = strPtrOrNil(c.Email)
	multa.ConductorTelefono = strPtrOrNil(c.Telefono)
	multa.ConductorDireccion = strPtrOrNil(direccion)
	multa.Estado = model.EstadoConductorIdentificado
	multa.NextRetryAt = nil
	multa.LastError = nil

	if err := w.multaRepo.Update(ctx, multa); err != nil {
		log.Error().Err(err).Str("multa_id", multa.ID.String()).Msg("identificacion_worker: update failed")
		return
	}
	log.Info().
		Str("multa_id", multa.ID.String()).
		Str("dni", c.DNI).
		Int("total_retries", multa.RetryCount).
		Msg("identificacion_worker: conductor identificado")
}

func (w *IdentificacionWorker) markError(ctx context.Context, multa *model.Multa, observacion string) {
	multa.Estado = model.EstadoErrorIdentificacion
	multa.Observaciones = &observacion
	multa.NextRetryAt = nil

	if err := w.multaRepo.Update(ctx, multa); err != nil {
		log.Error().Err(err).Str("multa_id", multa.ID.String()).Msg("identificacion_worker: update failed")
		return
	}
	log.Warn().
		Str("multa_id", multa.ID.String()).
		Str("motivo", observacion).
		Msg("identificacion_worker: identificacion fallida")
}

func (w *IdentificacionWorker) scheduleRetry(ctx context.Context, multa *model.Multa, cause error) {
	multa.RetryCount++
	msg := cause.Error()
	multa.LastError = &msg

	if multa.RetryCount >= MaxIdentificacionRetries {
		obs := fmt.Sprintf("microservicio no disponible tras %d intentos", multa.RetryCount)
		multa.Estado = model.EstadoErrorIdentificacion
		multa.Observaciones = &obs
		multa.NextRetryAt = nil
		if err := w.multaRepo.Update(ctx, multa); err != nil {
			log.Error().Err(err).Str("multa_id", multa.ID.String()).Msg("identificacion_worker: update failed")
			return
		}

		payload := fmt.Sprintf(`{"multa_id":"%s"}`, multa.ID)
		SendToDLQ(ctx, w.rdb, QueueIdentificacion, "identificacion", []byte(payload),
			fmt.Sprintf("max retries (%d) exceeded: %s", MaxIdentificacionRetries, msg),
			multa.RetryCount)

		log.Error().
			Str("multa_id", multa.ID.String()).
			Int("retries", multa.RetryCount).
			Msg("identificacion_worker: max retries exceeded, moved to error/DLQ")
		return
	}

	nextRetry := time.Now().Add(computeRetryBackoff(multa.RetryCount))
	multa.NextRetryAt = &nextRetry
	if err := w.multaRepo.Update(ctx, multa); err != nil {
		log.Error().Err(err).Str("multa_id", multa.ID.String()).Msg("identificacion_worker: update failed")
		return
	}
	log.Warn().
		Str("multa_id", multa.ID.String()).
		Int("retry_count", multa.RetryCount).
		Time("next_retry_at", nextRetry).
		Msg("identificacion_worker: microservicio no disponible, reintento programado")
}

// computeRetryBackoff returns the delay before attempt retryCount+1.
// Schedule: 1m, 2m, 4m, 8m … capped at 30m.
func computeRetryBackoff(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	d := time.Minute << uint(retryCount-1)
	if d > 30*time.Minute {
		d = 30 * time.Minute
	}
	return d
}

func composeDireccion(c *dto.ConductorData) string {
	direccion := c.Direccion
	resto := c.CodigoPostal
	if c.Ciudad != "" {
		if resto != "" {
			resto += " "
		}
		resto += c.Ciudad
	}
	if resto == "" {
		return direccion
	}
	if direccion == "" {
		return resto
	}
	return direccion + ", " + resto
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
