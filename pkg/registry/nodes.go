package registry

import (
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/nodes/condition"
	"github.com/dukex/formflow/pkg/nodes/createupdate"
	"github.com/dukex/formflow/pkg/nodes/find"
	"github.com/dukex/formflow/pkg/nodes/formatter"
	"github.com/dukex/formflow/pkg/nodes/loop"
	"github.com/dukex/formflow/pkg/nodes/sheet"
)

// RegisterDefaultNodes registers all built-in node factories with the registry.
func (r *Registry) RegisterDefaultNodes() {
	r.RegisterNode(createupdate.NewCreateUpdateNodeFactory())

	// Find and Filter share one executor
	r.RegisterNode(find.NewFindNodeFactory(models.NodeTypeFind))
	r.RegisterNode(find.NewFindNodeFactory(models.NodeTypeFilter))

	r.RegisterNode(loop.NewLoopNodeFactory())
	r.RegisterNode(formatter.NewFormatterNodeFactory())
	r.RegisterNode(condition.NewConditionNodeFactory())

	r.RegisterNode(sheet.NewGoogleSheetNodeFactory())
	r.RegisterNode(sheet.NewFindGoogleSheetNodeFactory())
}
