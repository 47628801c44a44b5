package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"lendhub/core"
	"lendhub/engine"
	"lendhub/handler/param"
	"lendhub/handler/render"
)

// callsHandler accepts a delegated call, verifies it, and dispatches the
// payload to the engine. The verified principal always overrides whatever
// acting party the payload claims.
func callsHandler(verifier core.IVerifier, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var call core.DelegatedCall
		if err := param.Binding(r, &call); err != nil {
			render.BadRequest(w, err)
			return
		}

		ctx := r.Context()
		if err := verifier.Verify(ctx, &call); err != nil {
			render.Error(w, err)
			return
		}

		result, err := dispatch(ctx, eng, &call)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, result)
	}
}

func dispatch(ctx context.Context, eng *engine.Engine, call *core.DelegatedCall) (interface{}, error) {
	switch call.Operation {
	case core.OpSupply:
		var req engine.SupplyRequest
		if err := json.Unmarshal(call.Payload, &req); err != nil {
			return nil, err
		}
		req.Payer = call.Principal
		return render.H{}, eng.Supply(ctx, &req)

	case core.OpWithdraw:
		var req engine.WithdrawRequest
		if err := json.Unmarshal(call.Payload, &req); err != nil {
			return nil, err
		}
		req.OnBehalfOf = call.Principal
		withdrawn, err := eng.Withdraw(ctx, &req)
		if err != nil {
			return nil, err
		}
		return render.H{"withdrawn": withdrawn}, nil

	case core.OpBorrow:
		var req engine.BorrowRequest
		if err := json.Unmarshal(call.Payload, &req); err != nil {
			return nil, err
		}
		req.OnBehalfOf = call.Principal
		return render.H{}, eng.Borrow(ctx, &req)

	case core.OpRepay:
		var req engine.RepayRequest
		if err := json.Unmarshal(call.Payload, &req); err != nil {
			return nil, err
		}
		req.UserID = call.Principal
		base, premium, err := eng.Repay(ctx, &req)
		if err != nil {
			return nil, err
		}
		return render.H{"repaid_base": base, "repaid_premium": premium}, nil

	case core.OpSetCollateral:
		var req engine.CollateralRequest
		if err := json.Unmarshal(call.Payload, &req); err != nil {
			return nil, err
		}
		req.UserID = call.Principal
		return render.H{}, eng.SetUsingAsCollateral(ctx, &req)

	case core.OpLiquidationCall:
		var req engine.LiquidationRequest
		if err := json.Unmarshal(call.Payload, &req); err != nil {
			return nil, err
		}
		req.Liquidator = call.Principal
		return eng.LiquidationCall(ctx, &req)

	case core.OpMulticall:
		var calls []engine.Call
		if err := json.Unmarshal(call.Payload, &calls); err != nil {
			return nil, err
		}
		for i := range calls {
			bindPrincipal(&calls[i], call.Principal)
		}
		return eng.Multicall(ctx, calls)

	case core.OpAddAsset:
		var req engine.AddAssetRequest
		if err := json.Unmarshal(call.Payload, &req); err != nil {
			return nil, err
		}
		req.Caller = call.Principal
		return render.H{}, eng.AddAsset(ctx, &req)

	case core.OpAddSpoke:
		var req engine.AddSpokeRequest
		if err := json.Unmarshal(call.Payload, &req); err != nil {
			return nil, err
		}
		req.Caller = call.Principal
		return render.H{}, eng.AddSpoke(ctx, &req)

	case core.OpSetSpokeAsset:
		var req engine.SetSpokeAssetRequest
		if err := json.Unmarshal(call.Payload, &req); err != nil {
			return nil, err
		}
		req.Caller = call.Principal
		return render.H{}, eng.SetSpokeAsset(ctx, &req)

	case core.OpAddReserve:
		var req engine.AddReserveRequest
		if err := json.Unmarshal(call.Payload, &req); err != nil {
			return nil, err
		}
		req.Caller = call.Principal
		return render.H{}, eng.AddReserve(ctx, &req)

	case core.OpUpdateReserveConfig:
		var req engine.UpdateReserveConfigRequest
		if err := json.Unmarshal(call.Payload, &req); err != nil {
			return nil, err
		}
		req.Caller = call.Principal
		return render.H{}, eng.UpdateReserveConfig(ctx, &req)

	case core.OpUpdateDynamicConfig:
		var req engine.UpdateDynamicConfigRequest
		if err := json.Unmarshal(call.Payload, &req); err != nil {
			return nil, err
		}
		req.Caller = call.Principal
		return render.H{}, eng.UpdateDynamicConfig(ctx, &req)

	case core.OpUpdateLiquidationConfig:
		var req engine.UpdateLiquidationConfigRequest
		if err := json.Unmarshal(call.Payload, &req); err != nil {
			return nil, err
		}
		req.Caller = call.Principal
		return render.H{}, eng.UpdateLiquidationConfig(ctx, &req)

	case core.OpUpdateLiquidityPremium:
		var req engine.UpdateLiquidityPremiumRequest
		if err := json.Unmarshal(call.Payload, &req); err != nil {
			return nil, err
		}
		req.Caller = call.Principal
		return render.H{}, eng.UpdateLiquidityPremium(ctx, &req)

	default:
		return nil, core.ErrOperationForbidden
	}
}

func bindPrincipal(call *engine.Call, principal string) {
	switch {
	case call.Supply != nil:
		call.Supply.Payer = principal
	case call.Withdraw != nil:
		call.Withdraw.OnBehalfOf = principal
	case call.Borrow != nil:
		call.Borrow.OnBehalfOf = principal
	case call.Repay != nil:
		call.Repay.UserID = principal
	case call.SetCollateral != nil:
		call.SetCollateral.UserID = principal
	case call.Liquidation != nil:
		call.Liquidation.Liquidator = principal
	}
}
