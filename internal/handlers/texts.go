package handlers

const (
	botTitle = "سُطورٌ من السَّماء ☁️"

	textWelcome        = "🕋 مرحباً %s في بوت \"" + botTitle + "\"\nرحلة روحانية تبدأ من هنا... استعرض، اقرأ، استمع، واحفظ آيات الله 💖"
	textMenu           = "اختر من القائمة:"
	textChooseChapter  = "📚 اختر سورة من القرآن الكريم:"
	textSearchPrompt   = "🔍 أرسل الكلمة أو الجملة التي تريد البحث عنها:"
	textNoResults      = "⚠️ لم يتم العثور على نتائج"
	textSearchResult   = "سورة %s الآية %d:\n\n%s"
	textTafsirHeader   = "📘 تفسير الآية %s (%s):\n\n"
	textFavoritesTitle = "⭐ آياتك المفضلة:\n\n"
	textFavoritesEmpty = "⭐ لم تقم بحفظ أي آيات بعد"
	textFavoriteAdded  = "💖 تمت إضافة الآية إلى المفضلة"
	textFavoriteExists = "💖 الآية موجودة في المفضلة مسبقاً"
	textFavoriteGone   = "🗑 تم حذف الآية من المفضلة"
	textSaveFailed     = "⚠️ تعذّر حفظ المفضلة، حاول مرة أخرى لاحقاً"
	textContentFailed  = "⚠️ تعذّر الوصول إلى خدمة المصحف، حاول مرة أخرى لاحقاً"
	textNotSubscribed  = "⛔️ يجب الاشتراك في القناة أولاً لاستخدام البوت"
	textStillNotSubbed = "⛔️ لم تشترك بعد، يرجى الاشتراك أولاً"
	textUnknownInput   = "استخدم /start لعرض القائمة"
	textUnknownAction  = "⚠️ إجراء غير معروف"
	textStats          = "📊 الإحصائيات\nالمستخدمون: %d\nالآيات المحفوظة: %d"

	btnBrowse      = "📖 تصفّح السور"
	btnSearch      = "🔍 البحث عن آية"
	btnFavorites   = "⭐ مفضلتي"
	btnDeveloper   = "🧑‍💻 المطور"
	btnListen      = "▶️ استمع"
	btnAddFavorite = "📌 أضف للمفضلة"
	btnTafsir      = "📘 تفسير"
	btnRemove      = "❌ حذف %d:%d"
	btnSubscribe   = "📢 اشترك في القناة"
	btnCheck       = "✅ تحقق"
	btnCancel      = "❌ إلغاء"
	btnBack        = "🏠 القائمة الرئيسية"
)
