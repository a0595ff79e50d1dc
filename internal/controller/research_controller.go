package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"capital-research-be/internal/dto"
	"capital-research-be/internal/pkg/serverutils"
	"capital-research-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IResearchController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type researchController struct {
	researchService service.IResearchService
}

func NewResearchController(researchService service.IResearchService) IResearchController {
	return &researchController{
		researchService: researchService,
	}
}

func (c *researchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/research/v1")
	h.Use(serverutils.OptionalJwtMiddleware) // Anonymous chat allowed; token links the session
	h.Post("chat", c.Chat)
	h.Get("health", c.Health)
}

// Chat streams the assistant reply as server-sent events. The active session
// id is echoed in X-Session-Id so the client can persist it for the next
// request. A failure before the first token yields a plain 500 JSON body; a
// failure mid-stream is signaled with an error event, and already-sent text
// is not retracted.
func (c *researchController) Chat(ctx *fiber.Ctx) error {
	var req dto.ResearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userID, _ := ctx.Locals("user_id").(string)
	sessionID := c.researchService.ResolveSession(ctx.Context(), req.SessionID, userID)

	// Generation runs detached from the request context so best-effort
	// persistence survives a client disconnect. The response commits to a
	// stream only once the first token arrives; failing earlier still
	// returns a clean 500.
	streamCtx, cancel := context.WithCancel(context.Background())
	deltas := make(chan string, 64)
	errCh := make(chan error, 1)

	go func() {
		errCh <- c.researchService.Stream(streamCtx, &req, sessionID, func(text string) error {
			select {
			case deltas <- text:
				return nil
			case <-streamCtx.Done():
				return streamCtx.Err()
			}
		})
		close(deltas)
	}()

	first, started := <-deltas
	if !started {
		if err := <-errCh; err != nil {
			cancel()
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "research failed"})
		}
		// No text at all (tool-only exchange); fall through and emit done.
	}

	ctx.Set("X-Session-Id", sessionID)
	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set("Connection", "keep-alive")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		if started {
			if err := writeDelta(w, first); err != nil {
				return
			}
			for delta := range deltas {
				if err := writeDelta(w, delta); err != nil {
					// Client went away; cancel stops generation upstream.
					return
				}
			}
			if err := <-errCh; err != nil {
				fmt.Fprintf(w, "event: error\ndata: {\"error\":\"research failed\"}\n\n")
				w.Flush()
				return
			}
		}

		fmt.Fprintf(w, "event: done\ndata: {\"sessionId\":%q}\n\n", sessionID)
		w.Flush()
	}))

	return nil
}

func (c *researchController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Research service health", c.researchService.Health()))
}

func writeDelta(w *bufio.Writer, text string) error {
	payload, err := json.Marshal(fiber.Map{"delta": text})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}
