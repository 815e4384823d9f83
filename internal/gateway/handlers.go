package gateway

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/auth"
	bomdto "github.com/fekuna/fabshop-inventory-service/internal/bom/dto"
	consumptiondto "github.com/fekuna/fabshop-inventory-service/internal/consumption/dto"
	ledgerdto "github.com/fekuna/fabshop-inventory-service/internal/inventory/dto"
	materialdto "github.com/fekuna/fabshop-inventory-service/internal/material/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	settingsdto "github.com/fekuna/fabshop-inventory-service/internal/settings/dto"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func bindJSON(c *gin.Context, entity string, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithError(c, apperr.Validation(entity, "invalid request body"))
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

func (s *server) getSettings(c *gin.Context) {
	st, err := s.svc.Settings.GetSettings(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": st})
}

func (s *server) updateSettings(c *gin.Context) {
	var patch settingsdto.SettingsPatch
	if !bindJSON(c, "settings", &patch) {
		return
	}
	st, err := s.svc.Settings.UpdateSettings(c.Request.Context(), &patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": st})
}

func (s *server) listMaterials(c *gin.Context) {
	f := &materialdto.MaterialFilters{
		Query:      c.Query("q"),
		LowOnly:    queryBool(c, "lowOnly"),
		ActiveOnly: queryBool(c, "activeOnly"),
		Page:       queryInt(c, "page"),
		PageSize:   queryInt(c, "limit"),
	}
	f.Normalize()
	items, total, err := s.svc.Materials.ListMaterials(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if items == nil {
		items = []model.Material{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "page": f.Page, "limit": f.PageSize})
}

func (s *server) createMaterial(c *gin.Context) {
	var in materialdto.CreateMaterialInput
	if !bindJSON(c, "material", &in) {
		return
	}
	m, err := s.svc.Materials.CreateMaterial(c.Request.Context(), &in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"material": m})
}

func (s *server) getMaterial(c *gin.Context) {
	m, err := s.svc.Materials.GetMaterial(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"material": m})
}

func (s *server) updateMaterial(c *gin.Context) {
	var in materialdto.UpdateMaterialInput
	if !bindJSON(c, "material", &in) {
		return
	}
	in.ID = c.Param("id")
	m, err := s.svc.Materials.UpdateMaterial(c.Request.Context(), &in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"material": m})
}

func (s *server) getLedger(c *gin.Context) {
	f := &ledgerdto.LedgerFilters{MaterialID: c.Param("id"), Limit: queryInt(c, "limit")}
	items, err := s.svc.Ledger.GetMaterialLedger(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if items == nil {
		items = []model.InventoryTransaction{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *server) exportLedger(c *gin.Context) {
	id := c.Param("id")
	data, err := s.svc.Ledger.ExportMaterialLedger(c.Request.Context(), &ledgerdto.LedgerFilters{MaterialID: id, Limit: queryInt(c, "limit")})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="ledger-`+id+`.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (s *server) receive(c *gin.Context) {
	s.movement(c, s.svc.Ledger.Receive)
}

func (s *server) adjust(c *gin.Context) {
	s.movement(c, s.svc.Ledger.Adjust)
}

func (s *server) movement(c *gin.Context, apply func(ctx context.Context, in *ledgerdto.MovementInput) (*ledgerdto.ApplyResult, error)) {
	var in ledgerdto.MovementInput
	if !bindJSON(c, "inventory_transaction", &in) {
		return
	}
	in.MaterialID = c.Param("id")
	in.Actor = auth.ActorFromContext(c.Request.Context())
	res, err := apply(c.Request.Context(), &in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (s *server) getOrderBom(c *gin.Context) {
	b, err := s.svc.Boms.GetOrderBom(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bom": b})
}

func (s *server) upsertOrderBom(c *gin.Context) {
	var in bomdto.UpsertBomInput
	if !bindJSON(c, "order_bom", &in) {
		return
	}
	in.OrderID = c.Param("orderId")
	b, err := s.svc.Boms.UpsertOrderBom(c.Request.Context(), &in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bom": b})
}

func (s *server) consumeForOrder(c *gin.Context) {
	var in consumptiondto.ConsumeInput
	if !bindJSON(c, "consumption", &in) {
		return
	}
	in.OrderID = c.Param("orderId")
	in.Actor = auth.ActorFromContext(c.Request.Context())
	res, err := s.svc.Consumption.ConsumeForOrder(c.Request.Context(), &in)
	if err != nil {
		if res != nil && len(res.Items) > 0 {
			abortWithPartial(c, err, res)
			return
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
