// Package mapping turns a fluent registration chain into binding sets.
//
// A registration starts with CreateMap and is configured by chained calls:
//
//	CreateMap<Order, OrderDto>()
//	    .ForMember(d => d.Total, o => o.MapFrom(s => s.Amount))   // explicit map
//	    .ForMember(d => d.Internal, o => o.Ignore())              // ignore
//	    .ReverseMap()                                              // direction switch
//	    .ForSourceMember(s => s.Total, o => o.DoNotValidate())     // reverse only
//
// # Classification
//
// Each call is classified once by name and arity, and only when the host
// resolved it to the library's own method. A user method named ReverseMap
// is a passthrough and does not switch direction. An unresolved call ends
// the walk and marks the registration partial.
//
// # Override order
//
// Later entries for the same member replace earlier ones, matching the
// library's own behaviour: Ignore followed by MapFrom leaves the member
// explicitly mapped, and the reverse order leaves it ignored.
//
// # Pair registry
//
// PairRegistry records every configured pair in the compilation (including
// the implicit reverse pairs) for nested-type checks and duplicate detection.
package mapping
