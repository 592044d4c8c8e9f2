package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

const (
	serviceName                = "cryptobridge.MarketDataService"
	getOrderBookSnapshotMethod = "/" + serviceName + "/GetOrderBookSnapshot"
)

type OrderBookSource int32

const (
	OrderBookSource_Unknown        OrderBookSource = 0
	OrderBookSource_LocalOrderBook OrderBookSource = 1
	OrderBookSource_Provider       OrderBookSource = 2
)

type GetOrderBookSnapshotRequest struct {
	Market   string
	MaxDepth int32
}

type OrderBookLevel struct {
	Price string
	Qty   string
}

type GetOrderBookSnapshotResponse struct {
	Source    OrderBookSource
	Market    string
	Timestamp int64
	Checksum  uint32
	Bids      []*OrderBookLevel
	Asks      []*OrderBookLevel
}

func (r *GetOrderBookSnapshotRequest) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(requestDescriptor)
	setString(m, "market", r.Market)
	m.Set(fieldOf(m, "max_depth"), protoreflect.ValueOfInt32(r.MaxDepth))
	return m
}

func requestFromProto(m protoreflect.Message) *GetOrderBookSnapshotRequest {
	return &GetOrderBookSnapshotRequest{
		Market:   m.Get(fieldOf(m, "market")).String(),
		MaxDepth: int32(m.Get(fieldOf(m, "max_depth")).Int()),
	}
}

func (r *GetOrderBookSnapshotResponse) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(responseDescriptor)
	m.Set(fieldOf(m, "source"), protoreflect.ValueOfEnum(protoreflect.EnumNumber(r.Source)))
	setString(m, "market", r.Market)
	m.Set(fieldOf(m, "timestamp"), protoreflect.ValueOfInt64(r.Timestamp))
	m.Set(fieldOf(m, "checksum"), protoreflect.ValueOfUint32(r.Checksum))
	appendLevels(m, "bids", r.Bids)
	appendLevels(m, "asks", r.Asks)
	return m
}

func responseFromProto(m protoreflect.Message) *GetOrderBookSnapshotResponse {
	return &GetOrderBookSnapshotResponse{
		Source:    OrderBookSource(m.Get(fieldOf(m, "source")).Enum()),
		Market:    m.Get(fieldOf(m, "market")).String(),
		Timestamp: m.Get(fieldOf(m, "timestamp")).Int(),
		Checksum:  uint32(m.Get(fieldOf(m, "checksum")).Uint()),
		Bids:      readLevels(m, "bids"),
		Asks:      readLevels(m, "asks"),
	}
}

func fieldOf(m protoreflect.Message, name protoreflect.Name) protoreflect.FieldDescriptor {
	return m.Descriptor().Fields().ByName(name)
}

func setString(m protoreflect.Message, name protoreflect.Name, v string) {
	m.Set(fieldOf(m, name), protoreflect.ValueOfString(v))
}

func appendLevels(m protoreflect.Message, name protoreflect.Name, levels []*OrderBookLevel) {
	list := m.Mutable(fieldOf(m, name)).List()
	for _, level := range levels {
		el := list.NewElement()
		setString(el.Message(), "price", level.Price)
		setString(el.Message(), "qty", level.Qty)
		list.Append(el)
	}
}

func readLevels(m protoreflect.Message, name protoreflect.Name) []*OrderBookLevel {
	list := m.Get(fieldOf(m, name)).List()
	levels := make([]*OrderBookLevel, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		lm := list.Get(i).Message()
		levels = append(levels, &OrderBookLevel{
			Price: lm.Get(fieldOf(lm, "price")).String(),
			Qty:   lm.Get(fieldOf(lm, "qty")).String(),
		})
	}
	return levels
}

type MarketDataServiceServer interface {
	GetOrderBookSnapshot(context.Context, *GetOrderBookSnapshotRequest) (*GetOrderBookSnapshotResponse, error)
}

func RegisterMarketDataServiceServer(s grpc.ServiceRegistrar, srv MarketDataServiceServer) {
	s.RegisterService(&marketDataServiceDesc, srv)
}

func getOrderBookSnapshotHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := dynamicpb.NewMessage(requestDescriptor)
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		resp, err := srv.(MarketDataServiceServer).GetOrderBookSnapshot(ctx, req.(*GetOrderBookSnapshotRequest))
		if err != nil {
			return nil, err
		}
		return resp.toProto(), nil
	}
	req := requestFromProto(in)
	if interceptor == nil {
		return handler(ctx, req)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: getOrderBookSnapshotMethod,
	}
	return interceptor(ctx, req, info, handler)
}

var marketDataServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*MarketDataServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetOrderBookSnapshot",
			Handler:    getOrderBookSnapshotHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cryptobridge/market_data.proto",
}

type MarketDataServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMarketDataServiceClient(cc grpc.ClientConnInterface) *MarketDataServiceClient {
	return &MarketDataServiceClient{cc: cc}
}

func (c *MarketDataServiceClient) GetOrderBookSnapshot(ctx context.Context, in *GetOrderBookSnapshotRequest, opts ...grpc.CallOption) (*GetOrderBookSnapshotResponse, error) {
	out := dynamicpb.NewMessage(responseDescriptor)
	if err := c.cc.Invoke(ctx, getOrderBookSnapshotMethod, in.toProto(), out, opts...); err != nil {
		return nil, err
	}
	return responseFromProto(out), nil
}
