package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-system/internal/dto"
	"inventory-system/internal/services"
	"inventory-system/pkg/api"
	apperrors "inventory-system/pkg/errors"
)

type EquipmentController struct {
	equipmentService services.EquipmentServiceInterface
	directory        services.EquipmentDirectoryInterface
	logger           *zap.Logger
}

func NewEquipmentController(
	service services.EquipmentServiceInterface,
	directory services.EquipmentDirectoryInterface,
	logger *zap.Logger,
) *EquipmentController {
	return &EquipmentController{
		equipmentService: service,
		directory:        directory,
		logger:           logger,
	}
}

func (ctrl *EquipmentController) errorResponse(c echo.Context, err error) error {
	return api.ErrorResponse(c, err, ctrl.logger)
}

// bind - JSON и форма разбираются одинаково, дальше сервис работает с типизированной структурой
func (ctrl *EquipmentController) bind(c echo.Context, payload interface{}, op string) error {
	if err := c.Bind(payload); err != nil {
		ctrl.logger.Warn(op+": ошибка привязки данных", zap.Error(err))
		return apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных", err, nil)
	}
	return nil
}

func (ctrl *EquipmentController) GetEquipments(c echo.Context) error {
	var filter dto.EquipmentFilterDTO
	if err := ctrl.bind(c, &filter, "GetEquipments"); err != nil {
		return ctrl.errorResponse(c, err)
	}

	res, err := ctrl.directory.ListEquipment(c.Request().Context(), filter)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessList(c, "Список оборудования успешно получен", res)
}

func (ctrl *EquipmentController) FindEquipment(c echo.Context) error {
	res, err := ctrl.directory.GetDetail(c.Request().Context(), c.Param("uuid"))
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Оборудование найдено", res)
}

func (ctrl *EquipmentController) CreateEquipment(c echo.Context) error {
	var payload dto.CreateEquipmentDTO
	if err := ctrl.bind(c, &payload, "CreateEquipment"); err != nil {
		return ctrl.errorResponse(c, err)
	}

	res, err := ctrl.equipmentService.CreateEquipment(c.Request().Context(), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusCreated, "Оборудование успешно создано", res)
}

func (ctrl *EquipmentController) UpdateStatus(c echo.Context) error {
	var payload dto.UpdateStatusDTO
	if err := ctrl.bind(c, &payload, "UpdateStatus"); err != nil {
		return ctrl.errorResponse(c, err)
	}

	res, err := ctrl.equipmentService.SetStatus(c.Request().Context(), c.Param("uuid"), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Статус обновлён", res)
}

func (ctrl *EquipmentController) UpdateEquipment(c echo.Context) error {
	var payload dto.UpdateEquipmentDTO
	if err := ctrl.bind(c, &payload, "UpdateEquipment"); err != nil {
		return ctrl.errorResponse(c, err)
	}

	res, err := ctrl.equipmentService.UpdateFields(c.Request().Context(), c.Param("uuid"), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Оборудование успешно обновлено", res)
}

func (ctrl *EquipmentController) AddHistory(c echo.Context) error {
	var payload dto.CreateHistoryDTO
	if err := ctrl.bind(c, &payload, "AddHistory"); err != nil {
		return ctrl.errorResponse(c, err)
	}

	res, err := ctrl.equipmentService.AppendNote(c.Request().Context(), c.Param("uuid"), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusCreated, "Запись добавлена в историю", res)
}

func (ctrl *EquipmentController) DeleteEquipment(c echo.Context) error {
	identity := c.Param("uuid")

	deleted, err := ctrl.equipmentService.DeleteEquipment(c.Request().Context(), identity)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	if !deleted {
		return ctrl.errorResponse(c, apperrors.ErrNotFound)
	}
	return api.SuccessOne(c, http.StatusOK, "Оборудование успешно удалено", dto.DeleteEquipmentResponseDTO{
		UUID:    identity,
		Deleted: true,
	})
}
