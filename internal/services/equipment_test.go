package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inventory-system/internal/authz"
	"inventory-system/internal/dto"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/metrics"
	"inventory-system/pkg/utils"
	"inventory-system/pkg/validation"
)

type equipmentFixture struct {
	store      *memStore
	tx         *fakeTxManager
	repo       *fakeEquipmentRepo
	history    *fakeHistoryRepo
	codeImages *fakeCodeImages
	metrics    *metrics.Metrics
	registry   IdentityRegistryInterface
	auditLog   AuditLogInterface
	service    EquipmentServiceInterface
	directory  EquipmentDirectoryInterface
}

func newEquipmentFixture(t *testing.T, ids IdentityGenerator) *equipmentFixture {
	t.Helper()
	store := newMemStore()
	f := &equipmentFixture{
		store:      store,
		tx:         &fakeTxManager{store: store},
		repo:       &fakeEquipmentRepo{store: store},
		history:    &fakeHistoryRepo{store: store},
		codeImages: &fakeCodeImages{},
		metrics:    metrics.New(prometheus.NewRegistry()),
	}
	logger := zap.NewNop()
	v := validation.New()
	gatekeeper := authz.NewGatekeeper()
	f.registry = NewIdentityRegistry(f.repo, f.codeImages, ids, logger)
	f.auditLog = NewAuditLog(f.history)

	f.service = NewEquipmentService(f.tx, f.repo, f.registry, f.auditLog, f.codeImages, gatekeeper, v, f.metrics, logger)
	f.directory = NewEquipmentDirectory(f.tx, f.repo, f.registry, f.auditLog, gatekeeper, v, logger)
	return f
}

func adminCtx() context.Context {
	return authz.WithPrincipal(context.Background(), &authz.Principal{ID: 1, Username: "admin", Role: constants.RoleAdmin})
}

func userCtx() context.Context {
	return authz.WithPrincipal(context.Background(), &authz.Principal{ID: 2, Username: "ivan", Role: constants.RoleUser})
}

func (f *equipmentFixture) create(t *testing.T, name, location string) *dto.EquipmentDetailDTO {
	t.Helper()
	res, err := f.service.CreateEquipment(adminCtx(), dto.CreateEquipmentDTO{Name: name, Location: location})
	require.NoError(t, err)
	return res
}

func TestEquipment_DrillScenario(t *testing.T) {
	f := newEquipmentFixture(t, nil)

	created := f.create(t, "Drill", "Shelf A")
	assert.Equal(t, "available", created.Status)
	require.Len(t, created.Histories, 1)
	assert.Equal(t, ActionCreated, created.Histories[0].Action)
	assert.True(t, strings.Contains(created.Histories[0].Action, "Создана"))
	assert.Equal(t, "admin", created.Histories[0].User.String)
	assert.True(t, created.QRCodePath.Valid)

	issued, err := f.service.SetStatus(adminCtx(), created.UUID, dto.UpdateStatusDTO{Status: "issued"})
	require.NoError(t, err)
	assert.Equal(t, "issued", issued.Status)
	assert.Len(t, issued.Histories, 2)

	// повтор того же статуса тоже попадает в журнал
	again, err := f.service.SetStatus(adminCtx(), created.UUID, dto.UpdateStatusDTO{Status: "issued"})
	require.NoError(t, err)
	assert.Equal(t, "issued", again.Status)
	assert.Len(t, again.Histories, 3)
	assert.Equal(t, StatusChangedAction(constants.EquipmentStatusIssued), again.Histories[2].Action)

	_, err = f.service.SetStatus(context.Background(), created.UUID, dto.UpdateStatusDTO{Status: "lost"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	detail, err := f.directory.GetDetail(context.Background(), created.UUID)
	require.NoError(t, err)
	assert.Equal(t, "issued", detail.Status)
	assert.Len(t, detail.Histories, 3)
}

func TestEquipment_ListOrderedByName(t *testing.T) {
	f := newEquipmentFixture(t, nil)
	f.create(t, "Beta", "Room 1")
	f.create(t, "Alpha", "Room 2")

	list, err := f.directory.ListEquipment(context.Background(), dto.EquipmentFilterDTO{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Equal(t, "Beta", list[1].Name)
}

func TestEquipment_ListFilterValidation(t *testing.T) {
	f := newEquipmentFixture(t, nil)

	_, err := f.directory.ListEquipment(context.Background(), dto.EquipmentFilterDTO{Status: "broken"})
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestEquipment_SetStatusSequence(t *testing.T) {
	f := newEquipmentFixture(t, nil)
	created := f.create(t, "Ladder", "Yard")

	sequence := []string{"issued", "lost", "available", "available", "lost", "issued"}
	var last *dto.EquipmentDetailDTO
	for _, status := range sequence {
		var err error
		last, err = f.service.SetStatus(adminCtx(), created.UUID, dto.UpdateStatusDTO{Status: status})
		require.NoError(t, err)
	}

	assert.Equal(t, "issued", last.Status)
	assert.Len(t, last.Histories, 1+len(sequence))
	assert.Equal(t, float64(len(sequence)), testutil.ToFloat64(f.metrics.HistoryEntries.WithLabelValues(metrics.HistoryKindStatus)))
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.StatusTransitions.WithLabelValues("lost")))
}

func TestEquipment_SetStatusActor(t *testing.T) {
	f := newEquipmentFixture(t, nil)
	created := f.create(t, "Saw", "Shelf B")

	res, err := f.service.SetStatus(adminCtx(), created.UUID, dto.UpdateStatusDTO{Status: "issued", User: utils.ToPtr("Петров")})
	require.NoError(t, err)
	assert.Equal(t, "Петров", res.Histories[1].User.String)

	res, err = f.service.SetStatus(adminCtx(), created.UUID, dto.UpdateStatusDTO{Status: "available", User: utils.ToPtr("  ")})
	require.NoError(t, err)
	assert.Equal(t, "admin", res.Histories[2].User.String)
}

func TestEquipment_SetStatusErrors(t *testing.T) {
	f := newEquipmentFixture(t, nil)
	created := f.create(t, "Saw", "Shelf B")

	_, err := f.service.SetStatus(adminCtx(), "missing", dto.UpdateStatusDTO{Status: "issued"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.service.SetStatus(adminCtx(), created.UUID, dto.UpdateStatusDTO{Status: "repaired"})
	assert.True(t, apperrors.IsInvalidInput(err))

	// идентификатор чувствителен к регистру
	_, err = f.service.SetStatus(adminCtx(), strings.ToUpper(created.UUID), dto.UpdateStatusDTO{Status: "issued"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Equal(t, 1, f.store.historyCount(1))
}

func TestEquipment_UpdateFields(t *testing.T) {
	f := newEquipmentFixture(t, nil)
	created := f.create(t, "Drill", "Shelf A")

	t.Run("пустой запрос не пишет историю", func(t *testing.T) {
		res, err := f.service.UpdateFields(adminCtx(), created.UUID, dto.UpdateEquipmentDTO{})
		require.NoError(t, err)
		assert.Len(t, res.Histories, 1)
	})

	t.Run("те же значения не пишут историю", func(t *testing.T) {
		res, err := f.service.UpdateFields(adminCtx(), created.UUID, dto.UpdateEquipmentDTO{
			Name:     utils.ToPtr("Drill"),
			Location: utils.ToPtr(" Shelf A "),
		})
		require.NoError(t, err)
		assert.Len(t, res.Histories, 1)
	})

	t.Run("новое имя даёт ровно одну запись", func(t *testing.T) {
		res, err := f.service.UpdateFields(adminCtx(), created.UUID, dto.UpdateEquipmentDTO{Name: utils.ToPtr("X")})
		require.NoError(t, err)
		assert.Equal(t, "X", res.Name)
		assert.Equal(t, "Shelf A", res.Location)
		require.Len(t, res.Histories, 2)
		assert.Equal(t, ActionFieldsUpdated, res.Histories[1].Action)
	})

	t.Run("несколько полей дают одну общую запись", func(t *testing.T) {
		res, err := f.service.UpdateFields(adminCtx(), created.UUID, dto.UpdateEquipmentDTO{
			Name:     utils.ToPtr("Drill 2"),
			Location: utils.ToPtr("Shelf C"),
			Notes:    utils.ToPtr("новое сверло"),
		})
		require.NoError(t, err)
		assert.Len(t, res.Histories, 3)
		assert.Equal(t, "новое сверло", res.Notes.String)
	})

	t.Run("пустые заметки очищают поле", func(t *testing.T) {
		res, err := f.service.UpdateFields(adminCtx(), created.UUID, dto.UpdateEquipmentDTO{Notes: utils.ToPtr("")})
		require.NoError(t, err)
		assert.False(t, res.Notes.Valid)
		assert.Len(t, res.Histories, 4)
	})

	t.Run("пустое имя отклоняется", func(t *testing.T) {
		_, err := f.service.UpdateFields(adminCtx(), created.UUID, dto.UpdateEquipmentDTO{Name: utils.ToPtr("   ")})
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("неизвестный идентификатор", func(t *testing.T) {
		_, err := f.service.UpdateFields(adminCtx(), "missing", dto.UpdateEquipmentDTO{Name: utils.ToPtr("Y")})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestEquipment_AppendNote(t *testing.T) {
	f := newEquipmentFixture(t, nil)
	created := f.create(t, "Drill", "Shelf A")

	res, err := f.service.AppendNote(adminCtx(), created.UUID, dto.CreateHistoryDTO{Action: "Заменён аккумулятор", User: utils.ToPtr("Сидоров")})
	require.NoError(t, err)
	require.Len(t, res.Histories, 2)
	assert.Equal(t, "Заменён аккумулятор", res.Histories[1].Action)
	assert.Equal(t, "Сидоров", res.Histories[1].User.String)
	assert.Equal(t, "available", res.Status)

	_, err = f.service.AppendNote(adminCtx(), created.UUID, dto.CreateHistoryDTO{Action: ""})
	assert.True(t, apperrors.IsInvalidInput(err))

	_, err = f.service.AppendNote(adminCtx(), created.UUID, dto.CreateHistoryDTO{Action: strings.Repeat("a", 256)})
	assert.True(t, apperrors.IsInvalidInput(err))

	_, err = f.service.AppendNote(adminCtx(), "missing", dto.CreateHistoryDTO{Action: "x"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Equal(t, 2, f.store.historyCount(1))
}

func TestEquipment_Delete(t *testing.T) {
	f := newEquipmentFixture(t, nil)
	created := f.create(t, "Drill", "Shelf A")
	_, err := f.service.SetStatus(adminCtx(), created.UUID, dto.UpdateStatusDTO{Status: "issued"})
	require.NoError(t, err)

	deleted, err := f.service.DeleteEquipment(adminCtx(), created.UUID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = f.directory.GetDetail(context.Background(), created.UUID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 0, f.store.historyCount(1))
	assert.Contains(t, f.codeImages.discarded, created.QRCodePath.String)

	deleted, err = f.service.DeleteEquipment(adminCtx(), created.UUID)
	require.NoError(t, err)
	assert.False(t, deleted)

	// мутация после удаления - NotFound
	_, err = f.service.SetStatus(adminCtx(), created.UUID, dto.UpdateStatusDTO{Status: "lost"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.EquipmentDeleted))
}

func TestEquipment_Authorization(t *testing.T) {
	f := newEquipmentFixture(t, nil)
	created := f.create(t, "Drill", "Shelf A")

	cases := []struct {
		name string
		ctx  context.Context
		want error
	}{
		{"аноним", context.Background(), apperrors.ErrUnauthorized},
		{"пользователь", userCtx(), apperrors.ErrForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.CreateEquipment(tc.ctx, dto.CreateEquipmentDTO{Name: "N", Location: "L"})
			assert.ErrorIs(t, err, tc.want)

			_, err = f.service.SetStatus(tc.ctx, created.UUID, dto.UpdateStatusDTO{Status: "lost"})
			assert.ErrorIs(t, err, tc.want)

			_, err = f.service.UpdateFields(tc.ctx, created.UUID, dto.UpdateEquipmentDTO{Name: utils.ToPtr("Y")})
			assert.ErrorIs(t, err, tc.want)

			_, err = f.service.AppendNote(tc.ctx, created.UUID, dto.CreateHistoryDTO{Action: "x"})
			assert.ErrorIs(t, err, tc.want)

			_, err = f.service.DeleteEquipment(tc.ctx, created.UUID)
			assert.ErrorIs(t, err, tc.want)

			// чтение доступно всем
			detail, err := f.directory.GetDetail(tc.ctx, created.UUID)
			require.NoError(t, err)
			assert.Len(t, detail.Histories, 1)
			assert.Equal(t, "available", detail.Status)
		})
	}
}

func TestEquipment_CreateValidation(t *testing.T) {
	f := newEquipmentFixture(t, nil)

	cases := []struct {
		name    string
		payload dto.CreateEquipmentDTO
		field   string
	}{
		{"нет имени", dto.CreateEquipmentDTO{Location: "L"}, "name"},
		{"нет места", dto.CreateEquipmentDTO{Name: "N"}, "location"},
		{"имя из пробелов", dto.CreateEquipmentDTO{Name: "  ", Location: "L"}, "name"},
		{"длинное имя", dto.CreateEquipmentDTO{Name: strings.Repeat("n", 256), Location: "L"}, "name"},
		{"длинные заметки", dto.CreateEquipmentDTO{Name: "N", Location: "L", Notes: utils.ToPtr(strings.Repeat("z", 2001))}, "notes"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.CreateEquipment(adminCtx(), tc.payload)
			var inputErr *apperrors.InvalidInputError
			require.True(t, errors.As(err, &inputErr))
			assert.Contains(t, inputErr.Fields, tc.field)
		})
	}

	assert.Empty(t, f.codeImages.generated)
}

func TestEquipment_IdentityCollisionIsRetried(t *testing.T) {
	f := newEquipmentFixture(t, sequenceIdentities("dup", "dup", "fresh"))

	first := f.create(t, "First", "A")
	second := f.create(t, "Second", "B")

	assert.Equal(t, "dup", first.UUID)
	assert.Equal(t, "fresh", second.UUID)

	list, err := f.directory.ListEquipment(context.Background(), dto.EquipmentFilterDTO{})
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, e := range list {
		assert.False(t, seen[e.UUID], "идентификатор %s встречается дважды", e.UUID)
		seen[e.UUID] = true
	}
}

func TestEquipment_IdentityRaceDiscardsImage(t *testing.T) {
	f := newEquipmentFixture(t, sequenceIdentities("a", "b"))
	f.repo.raceConflicts = 1

	created := f.create(t, "Drill", "Shelf A")
	assert.Equal(t, "b", created.UUID)
	assert.Equal(t, []string{"qrcodes/2024/01/01/a.png"}, f.codeImages.discarded)
}

func TestEquipment_IdentityRetriesExhausted(t *testing.T) {
	f := newEquipmentFixture(t, func() string { return "same" })
	f.create(t, "First", "A")

	_, err := f.service.CreateEquipment(adminCtx(), dto.CreateEquipmentDTO{Name: "Second", Location: "B"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	list, err := f.directory.ListEquipment(context.Background(), dto.EquipmentFilterDTO{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEquipment_CreateIsAtomic(t *testing.T) {
	f := newEquipmentFixture(t, nil)
	f.history.failErr = errors.New("диск заполнен")

	_, err := f.service.CreateEquipment(adminCtx(), dto.CreateEquipmentDTO{Name: "Drill", Location: "Shelf A"})
	require.Error(t, err)

	list, err := f.directory.ListEquipment(context.Background(), dto.EquipmentFilterDTO{})
	require.NoError(t, err)
	assert.Empty(t, list)
	require.Len(t, f.codeImages.generated, 1)
	assert.Equal(t, f.codeImages.generated, f.codeImages.discarded)
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.HistoryEntries.WithLabelValues(metrics.HistoryKindCreated)))
}

func TestEquipment_SetStatusIsAtomic(t *testing.T) {
	f := newEquipmentFixture(t, nil)
	created := f.create(t, "Drill", "Shelf A")
	f.history.failErr = errors.New("диск заполнен")

	_, err := f.service.SetStatus(adminCtx(), created.UUID, dto.UpdateStatusDTO{Status: "lost"})
	require.Error(t, err)

	detail, err := f.directory.GetDetail(context.Background(), created.UUID)
	require.NoError(t, err)
	assert.Equal(t, "available", detail.Status)
	assert.Len(t, detail.Histories, 1)
}

func TestEquipment_UpdateFieldsIsAtomic(t *testing.T) {
	f := newEquipmentFixture(t, nil)
	created := f.create(t, "Drill", "Shelf A")
	f.history.failErr = errors.New("диск заполнен")

	_, err := f.service.UpdateFields(adminCtx(), created.UUID, dto.UpdateEquipmentDTO{Name: utils.ToPtr("Hammer")})
	require.Error(t, err)

	detail, err := f.directory.GetDetail(context.Background(), created.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Drill", detail.Name)
	assert.Len(t, detail.Histories, 1)
}

func TestEquipment_HistoryOrder(t *testing.T) {
	f := newEquipmentFixture(t, nil)
	created := f.create(t, "Drill", "Shelf A")

	for _, note := range []string{"первая", "вторая", "третья"} {
		_, err := f.service.AppendNote(adminCtx(), created.UUID, dto.CreateHistoryDTO{Action: note})
		require.NoError(t, err)
	}

	detail, err := f.directory.GetDetail(context.Background(), created.UUID)
	require.NoError(t, err)
	actions := make([]string, 0, len(detail.Histories))
	for _, h := range detail.Histories {
		actions = append(actions, h.Action)
	}
	assert.Equal(t, []string{ActionCreated, "первая", "вторая", "третья"}, actions)
}

func TestEquipment_ResolveAndListForOutsideTransaction(t *testing.T) {
	f := newEquipmentFixture(t, nil)
	ctx := context.Background()
	created := f.create(t, "Drill", "Shelf A")

	equipment, err := f.registry.Resolve(ctx, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Drill", equipment.Name)

	history, err := f.auditLog.ListFor(ctx, equipment.ID)
	require.NoError(t, err)
	require.Len(t, history, 1, "запись о создании появляется сразу")
	assert.Equal(t, ActionCreated, history[0].Action)

	const n = 4
	for i := 0; i < n; i++ {
		_, err := f.service.SetStatus(adminCtx(), created.UUID, dto.UpdateStatusDTO{Status: "issued"})
		require.NoError(t, err)
	}
	_, err = f.service.AppendNote(adminCtx(), created.UUID, dto.CreateHistoryDTO{Action: "Осмотр"})
	require.NoError(t, err)

	history, err = f.auditLog.ListFor(ctx, equipment.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1+n+1)
	assert.Equal(t, "Осмотр", history[len(history)-1].Action)

	_, err = f.registry.Resolve(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
