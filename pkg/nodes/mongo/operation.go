package mongo

// Operation names a collection method the node can call.
type Operation string

const (
	OperationInsertOne              Operation = "insertOne"
	OperationInsertMany             Operation = "insertMany"
	OperationFind                   Operation = "find"
	OperationFindOne                Operation = "findOne"
	OperationFindOneAndUpdate       Operation = "findOneAndUpdate"
	OperationAggregate              Operation = "aggregate"
	OperationUpdateOne              Operation = "updateOne"
	OperationUpdateMany             Operation = "updateMany"
	OperationReplaceOne             Operation = "replaceOne"
	OperationDeleteOne              Operation = "deleteOne"
	OperationDeleteMany             Operation = "deleteMany"
	OperationCountDocuments         Operation = "countDocuments"
	OperationEstimatedDocumentCount Operation = "estimatedDocumentCount"
	OperationDistinct               Operation = "distinct"
	OperationBulkWrite              Operation = "bulkWrite"

	DefaultOperation = OperationFind
)

// Operations lists every supported operation in display order.
var Operations = []Operation{
	OperationInsertOne,
	OperationInsertMany,
	OperationFind,
	OperationFindOne,
	OperationFindOneAndUpdate,
	OperationAggregate,
	OperationUpdateOne,
	OperationUpdateMany,
	OperationReplaceOne,
	OperationDeleteOne,
	OperationDeleteMany,
	OperationCountDocuments,
	OperationEstimatedDocumentCount,
	OperationDistinct,
	OperationBulkWrite,
}

func (o Operation) String() string {
	return string(o)
}

// Valid reports whether o is one of Operations.
func (o Operation) Valid() bool {
	for _, op := range Operations {
		if op == o {
			return true
		}
	}

	return false
}

// IsWrite reports whether o modifies the collection.
func (o Operation) IsWrite() bool {
	switch o {
	case OperationInsertOne, OperationInsertMany, OperationFindOneAndUpdate,
		OperationUpdateOne, OperationUpdateMany, OperationReplaceOne,
		OperationDeleteOne, OperationDeleteMany, OperationBulkWrite:
		return true
	default:
		return false
	}
}
