package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/skyraal/humanaiconnection/domain"
	httpUsecase "github.com/skyraal/humanaiconnection/internal/api/http/usecase"
)

type GetRoomRequest struct {
	Code string `params:"code" validate:"required,len=6,alphanum"`
}

type GetRoomResponse struct {
	Room domain.RoomSnapshot `json:"room"`
}

type GetRoomHandler struct {
	usecase httpUsecase.GetRoomUseCase
}

func NewGetRoomHandler(usecase httpUsecase.GetRoomUseCase) *GetRoomHandler {
	return &GetRoomHandler{
		usecase: usecase,
	}
}

func (h *GetRoomHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *GetRoomRequest) (*GetRoomResponse, int, error) {
	snap, status, err := h.usecase.Execute(ctx, req.Code)
	if err != nil {
		return nil, status, err
	}
	return &GetRoomResponse{Room: snap}, status, nil
}
