package rpc

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// marketDataFile is the schema of cryptobridge/market_data.proto:
//
//	enum OrderBookSource { Unknown = 0; LocalOrderBook = 1; Provider = 2; }
//	message GetOrderBookSnapshotRequest { string market = 1; int32 max_depth = 2; }
//	message OrderBookLevel { string price = 1; string qty = 2; }
//	message GetOrderBookSnapshotResponse {
//	  OrderBookSource source = 1; repeated OrderBookLevel bids = 2; repeated OrderBookLevel asks = 3;
//	  string market = 4; int64 timestamp = 5; uint32 checksum = 6;
//	}
//	service MarketDataService { rpc GetOrderBookSnapshot(GetOrderBookSnapshotRequest) returns (GetOrderBookSnapshotResponse); }
var marketDataFile = &descriptorpb.FileDescriptorProto{
	Name:    proto.String("cryptobridge/market_data.proto"),
	Package: proto.String("cryptobridge"),
	Syntax:  proto.String("proto3"),
	EnumType: []*descriptorpb.EnumDescriptorProto{{
		Name: proto.String("OrderBookSource"),
		Value: []*descriptorpb.EnumValueDescriptorProto{
			{Name: proto.String("Unknown"), Number: proto.Int32(0)},
			{Name: proto.String("LocalOrderBook"), Number: proto.Int32(1)},
			{Name: proto.String("Provider"), Number: proto.Int32(2)},
		},
	}},
	MessageType: []*descriptorpb.DescriptorProto{
		{
			Name: proto.String("GetOrderBookSnapshotRequest"),
			Field: []*descriptorpb.FieldDescriptorProto{
				scalarField("market", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				scalarField("max_depth", 2, descriptorpb.FieldDescriptorProto_TYPE_INT32),
			},
		},
		{
			Name: proto.String("OrderBookLevel"),
			Field: []*descriptorpb.FieldDescriptorProto{
				scalarField("price", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				scalarField("qty", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
			},
		},
		{
			Name: proto.String("GetOrderBookSnapshotResponse"),
			Field: []*descriptorpb.FieldDescriptorProto{
				{
					Name:     proto.String("source"),
					Number:   proto.Int32(1),
					Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					Type:     descriptorpb.FieldDescriptorProto_TYPE_ENUM.Enum(),
					TypeName: proto.String(".cryptobridge.OrderBookSource"),
				},
				levelsField("bids", 2),
				levelsField("asks", 3),
				scalarField("market", 4, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				scalarField("timestamp", 5, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				scalarField("checksum", 6, descriptorpb.FieldDescriptorProto_TYPE_UINT32),
			},
		},
	},
	Service: []*descriptorpb.ServiceDescriptorProto{{
		Name: proto.String("MarketDataService"),
		Method: []*descriptorpb.MethodDescriptorProto{{
			Name:       proto.String("GetOrderBookSnapshot"),
			InputType:  proto.String(".cryptobridge.GetOrderBookSnapshotRequest"),
			OutputType: proto.String(".cryptobridge.GetOrderBookSnapshotResponse"),
		}},
	}},
}

func scalarField(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func levelsField(name string, number int32) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		Number:   proto.Int32(number),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
		Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
		TypeName: proto.String(".cryptobridge.OrderBookLevel"),
	}
}

var (
	marketDataDescriptor protoreflect.FileDescriptor

	requestDescriptor  protoreflect.MessageDescriptor
	responseDescriptor protoreflect.MessageDescriptor
)

func init() {
	fd, err := protodesc.NewFile(marketDataFile, protoregistry.GlobalFiles)
	if err != nil {
		panic("rpc: invalid market data descriptor: " + err.Error())
	}
	// registered globally so the reflection service can describe it
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic("rpc: register market data descriptor: " + err.Error())
	}

	marketDataDescriptor = fd
	requestDescriptor = fd.Messages().ByName("GetOrderBookSnapshotRequest")
	responseDescriptor = fd.Messages().ByName("GetOrderBookSnapshotResponse")
}
